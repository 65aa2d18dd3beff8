package router

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"listings_backend/internal/controller"
	"listings_backend/internal/middleware"
	"listings_backend/pkg/logger"
	"listings_backend/pkg/utils/apperror"
	"listings_backend/pkg/utils/jwt"
)

type Options struct {
	// HideInternalErrors replaces 5xx messages in responses.
	HideInternalErrors bool
	CORSOrigins        string
	BodyLimitMB        int
	// AccessLog enables the fiber request logger.
	AccessLog bool
	// Metrics is registered at /metrics when set.
	Metrics *fiberprometheus.FiberPrometheus
}

// Handlers groups every controller the routes dispatch to.
type Handlers struct {
	Properties   *controller.PropertyHandler
	Catalog      *controller.CatalogHandler
	Companies    *controller.CompanyHandler
	Locations    *controller.LocationHandler
	Blogs        *controller.BlogHandler
	Testimonials *controller.TestimonialHandler
	Access       *controller.AccessHandler
	Connections  *controller.ConnectionHandler
	Auth         *controller.AuthHandler
}

// NewApp builds the fiber app with the shared middleware stack but no API routes.
func NewApp(opts Options) *fiber.App {
	bodyLimit := opts.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 50
	}

	app := fiber.New(fiber.Config{
		AppName:      "listings_backend",
		BodyLimit:    bodyLimit * 1024 * 1024,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: middleware.ErrorHandler(opts.HideInternalErrors),
	})

	app.Use(recover.New())
	app.Use(logger.Middleware())
	if opts.AccessLog {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + logger.RequestIDHeader,
	}))
	app.Use(compress.New())

	if opts.Metrics != nil {
		opts.Metrics.RegisterAt(app, "/metrics")
		app.Use(opts.Metrics.Middleware)
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app
}

// Setup mounts the API under /api/v1 and a JSON 404 for everything else.
func Setup(app *fiber.App, h Handlers, tokens *jwt.Manager) {
	api := app.Group("/api/v1")
	auth := middleware.AuthMiddleware(tokens)

	// Properties
	api.Get("/properties", h.Properties.ListProperties)
	api.Get("/allproperties", h.Properties.AllProperties)
	api.Get("/:id/property", h.Properties.GetProperty)
	api.Get("/:id/similarproperties", h.Properties.SimilarProperties)
	api.Post("/property", auth, h.Properties.CreateProperty)
	api.Patch("/property", auth, h.Properties.UpdateProperty)
	api.Delete("/:id/property", auth, h.Properties.DeleteProperty)
	api.Patch("/propertyimage", auth, h.Properties.UpdatePropertyImage)
	api.Patch("/propertyimages/order", auth, h.Properties.OrderPropertyImages)

	// Features
	api.Get("/features", h.Catalog.GetFeatures)
	api.Get("/:id/feature", h.Catalog.GetFeature)
	api.Post("/feature", auth, h.Catalog.CreateFeature)
	api.Patch("/feature", auth, h.Catalog.UpdateFeature)
	api.Delete("/features", auth, h.Catalog.DeleteFeatures)
	api.Delete("/:id/feature", auth, h.Catalog.DeleteFeature)

	// Property types
	api.Get("/propertytypes", h.Catalog.GetPropertyTypes)
	api.Get("/:id/propertytype", h.Catalog.GetPropertyType)
	api.Get("/:name/propertytypebyname", h.Catalog.GetPropertyTypeByName)
	api.Post("/propertytype", auth, h.Catalog.CreatePropertyType)
	api.Patch("/propertytype", auth, h.Catalog.UpdatePropertyType)
	api.Delete("/:id/propertytype", auth, h.Catalog.DeletePropertyType)

	// Companies and locations
	api.Get("/companies", h.Companies.GetCompanies)
	api.Get("/:id/company", h.Companies.GetCompany)
	api.Post("/company", auth, h.Companies.CreateCompany)
	api.Patch("/company", auth, h.Companies.UpdateCompany)
	api.Delete("/:id/company", auth, h.Companies.DeleteCompany)

	api.Get("/locations", h.Locations.GetLocations)
	api.Get("/:id/location", h.Locations.GetLocation)
	api.Post("/location", auth, h.Locations.CreateLocation)
	api.Patch("/location", auth, h.Locations.UpdateLocation)
	api.Delete("/:id/location", auth, h.Locations.DeleteLocation)

	// Blogs and testimonials
	api.Get("/blogs", h.Blogs.GetBlogs)
	api.Get("/recentblogs", h.Blogs.GetRecentBlogs)
	api.Get("/:id/blog", h.Blogs.GetBlog)
	api.Post("/blog", auth, h.Blogs.CreateBlog)
	api.Patch("/blog", auth, h.Blogs.UpdateBlog)
	api.Delete("/:id/blog", auth, h.Blogs.DeleteBlog)

	api.Get("/gettestimonials", h.Testimonials.GetTestimonials)
	api.Get("/:id/gettestimonials", h.Testimonials.GetTestimonial)
	api.Post("/testimonial", auth, h.Testimonials.CreateTestimonial)
	api.Patch("/testimonial", auth, h.Testimonials.UpdateTestimonial)
	api.Delete("/:id/testimonial", auth, h.Testimonials.DeleteTestimonial)

	// Access requests
	api.Post("/requestuseraccess", h.Access.RequestAccess)
	api.Get("/requestusersaccess", auth, h.Access.GetAccessRequests)
	api.Get("/:id/requestuser", auth, h.Access.GetAccessRequest)
	api.Patch("/requestuser", auth, h.Access.UpdateAccessStatus)
	api.Delete("/:id/requestuser", auth, h.Access.DeleteAccessRequest)

	// Contact messages
	api.Post("/connection", h.Connections.CreateConnection)
	api.Get("/connections", auth, h.Connections.GetConnections)
	api.Get("/:id/connection", auth, h.Connections.GetConnection)
	api.Patch("/connection", auth, h.Connections.MarkConnection)
	api.Delete("/:id/connection", auth, h.Connections.DeleteConnection)

	// Auth and users
	api.Post("/signup", h.Auth.Register)
	api.Post("/login", h.Auth.Login)
	api.Post("/password/forgot", h.Auth.ForgotPassword)
	api.Post("/password/reset", h.Auth.ResetPassword)
	api.Get("/:id/user", auth, middleware.CheckUserAccess(), h.Auth.GetUser)
	api.Get("/:id/companyusers", auth, middleware.CheckCompanyAccess(), h.Auth.GetCompanyUsers)
	api.Patch("/updateuser", auth, h.Auth.UpdateUser)

	app.Use(func(c *fiber.Ctx) error {
		return apperror.NotFound("route " + c.Method() + " " + c.Path())
	})
}
