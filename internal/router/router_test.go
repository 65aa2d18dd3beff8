package router_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listings_backend/internal/controller"
	"listings_backend/internal/listing"
	"listings_backend/internal/model"
	"listings_backend/internal/router"
	"listings_backend/internal/testutil"
	"listings_backend/pkg/cache"
	"listings_backend/pkg/email"
	"listings_backend/pkg/events"
	"listings_backend/pkg/seed"
	"listings_backend/pkg/utils/jwt"
	"listings_backend/pkg/utils/storage"
)

const adminEmail = "admin@example.com"

type envelope struct {
	Status  interface{}     `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

type server struct {
	app    *fiber.App
	tokens *jwt.Manager
	mailer *email.Recorder
	events *events.Recorder
	store  *storage.MemoryStore
	token  string
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testutil.NewDB(t)
	require.NoError(t, seed.SeedCatalog(db))

	s := &server{
		tokens: jwt.NewManager("test-secret", time.Hour, 15*time.Minute),
		mailer: &email.Recorder{},
		events: &events.Recorder{},
		store:  storage.NewMemoryStore(),
	}

	features := cache.New[[]model.PropertyFeature]("features", 100, time.Minute)
	types := cache.New[[]model.PropertyType]("propertytypes", 100, time.Minute)
	t.Cleanup(features.Stop)
	t.Cleanup(types.Stop)

	paginator := listing.Paginator{DefaultLimit: 20, MaxLimit: 100}
	handlers := router.Handlers{
		Properties:   controller.NewPropertyHandler(listing.NewQueryService(db), listing.NewMutationService(db, s.store, s.events), paginator),
		Catalog:      controller.NewCatalogHandler(db, features, types),
		Companies:    controller.NewCompanyHandler(db),
		Locations:    controller.NewLocationHandler(db),
		Blogs:        controller.NewBlogHandler(db, s.store),
		Testimonials: controller.NewTestimonialHandler(db),
		Access:       controller.NewAccessHandler(db, s.mailer),
		Connections:  controller.NewConnectionHandler(db, s.mailer, adminEmail),
		Auth:         controller.NewAuthHandler(db, s.tokens, s.mailer, "https://listings.example.com/"),
	}

	s.app = router.NewApp(router.Options{CORSOrigins: "*"})
	router.Setup(s.app, handlers, s.tokens)

	token, err := s.tokens.GenerateToken(1, "staff@example.com", nil)
	require.NoError(t, err)
	s.token = token
	return s
}

func (s *server) do(t *testing.T, method, path string, body io.Reader, contentType, token string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (s *server) json(t *testing.T, method, path string, payload interface{}, token string) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, path, body, fiber.MIMEApplicationJSON, token)
}

func decode(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func propertyPayload(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":           name,
		"description":    "Two bedroom apartment close to the park",
		"street_address": "4 Park Lane",
		"city":           "Kilimani",
		"area":           "Yaya",
		"state":          "Nairobi",
		"country":        "Kenya",
		"county":         "Nairobi",
		"latitude":       "-1.29",
		"longitude":      "36.78",
		"saleType":       "Rent",
		"propertyType":   2,
		"size":           "110 sqm",
		"distance":       "1 km",
		"price":          120000,
		"pricepermonth":  950,
		"features":       "2,6",
		"bedrooms":       2,
	}
}

func (s *server) createProperty(t *testing.T, name string, images ...string) model.Property {
	t.Helper()
	raw, err := json.Marshal(propertyPayload(name))
	require.NoError(t, err)

	files := make([]testutil.File, 0, len(images))
	for _, img := range images {
		files = append(files, testutil.Image("images", img))
	}
	body, contentType := testutil.Multipart(t, map[string]string{"json": string(raw)}, files...)

	status, env := s.do(t, fiber.MethodPost, "/api/v1/property", body, contentType, s.token)
	require.Equal(t, http.StatusCreated, status, env.Message)

	var property model.Property
	decode(t, env, &property)
	return property
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newServer(t)

	resp, err := s.app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, env := s.do(t, fiber.MethodGet, "/api/v1/nowhere", nil, "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, float64(http.StatusNotFound), env.Status)
	assert.Equal(t, "route GET /api/v1/nowhere not found", env.Message)
}

func TestWritesRequireAuthentication(t *testing.T) {
	s := newServer(t)

	status, env := s.json(t, fiber.MethodPost, "/api/v1/feature", map[string]string{"name": "Solar"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing authorization header", env.Message)

	status, _ = s.do(t, fiber.MethodDelete, "/api/v1/1/property", nil, "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPropertyLifecycle(t *testing.T) {
	s := newServer(t)

	created := s.createProperty(t, "Park Lane Flat", "living.jpg", "kitchen.png")
	assert.NotZero(t, created.ID)
	require.Len(t, created.Images, 2)
	assert.Equal(t, 1, created.Images[0].Position)
	assert.Len(t, s.store.Keys(), 2)
	require.Len(t, created.Features, 2)

	filters := url.QueryEscape(`{"location":{"city":"kilimani"},"bedrooms":2,"saleType":"Rent"}`)
	status, env := s.do(t, fiber.MethodGet, "/api/v1/properties?limit=10&page=1&filters="+filters, nil, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)
	var list listing.ListResult
	decode(t, env, &list)
	require.Len(t, list.Properties, 1)
	assert.Equal(t, 1, list.TotalPages)
	assert.Equal(t, "Park Lane Flat", list.Properties[0].Name)

	path := "/api/v1/" + itoa(created.ID) + "/property"
	status, env = s.do(t, fiber.MethodGet, path, nil, "", "")
	require.Equal(t, http.StatusOK, status)
	var detail listing.Detail
	decode(t, env, &detail)
	assert.Equal(t, "4 Park Lane", detail.Property.StreetAddress)
	assert.Len(t, detail.Images, 2)

	status, env = s.do(t, fiber.MethodGet, "/api/v1/"+itoa(created.ID)+"/similarproperties", nil, "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, _ = s.do(t, fiber.MethodDelete, path, nil, "", s.token)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, s.store.Keys())

	status, env = s.do(t, fiber.MethodGet, path, nil, "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "property not found", env.Message)

	msgs := s.events.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, events.ActionCreate, msgs[0].Action)
	assert.Equal(t, events.ActionDelete, msgs[1].Action)
}

func TestUpdatePropertyWithJSONBody(t *testing.T) {
	s := newServer(t)
	created := s.createProperty(t, "Park Lane Flat")

	status, env := s.json(t, fiber.MethodPatch, "/api/v1/property", map[string]interface{}{
		"id":    created.ID,
		"price": 99000,
	}, s.token)
	require.Equal(t, http.StatusCreated, status, env.Message)

	var updated model.Property
	decode(t, env, &updated)
	assert.Equal(t, float64(99000), updated.Price)
	assert.Equal(t, "Kilimani", updated.City)
}

func TestListPropertiesRejectsBadQuery(t *testing.T) {
	s := newServer(t)

	status, env := s.do(t, fiber.MethodGet, "/api/v1/properties?filters=not-json", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, float64(http.StatusBadRequest), env.Status)

	status, _ = s.do(t, fiber.MethodGet, "/api/v1/properties?limit=ten", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, fiber.MethodGet, "/api/v1/abc/property", nil, "", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreatePropertyValidation(t *testing.T) {
	s := newServer(t)

	body, contentType := testutil.Multipart(t, map[string]string{"json": `{"name":""}`})
	status, env := s.do(t, fiber.MethodPost, "/api/v1/property", body, contentType, s.token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Errors, "name is required")

	body, contentType = testutil.Multipart(t, map[string]string{"note": "no payload"})
	status, env = s.do(t, fiber.MethodPost, "/api/v1/property", body, contentType, s.token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"json is required"}, env.Errors)
}

func TestFeatureCacheIsInvalidatedOnWrite(t *testing.T) {
	s := newServer(t)

	var features []model.PropertyFeature
	_, env := s.do(t, fiber.MethodGet, "/api/v1/features", nil, "", "")
	decode(t, env, &features)
	require.Len(t, features, 8)

	status, _ := s.json(t, fiber.MethodPost, "/api/v1/feature", map[string]string{"name": "Solar Panels"}, s.token)
	require.Equal(t, http.StatusCreated, status)

	_, env = s.do(t, fiber.MethodGet, "/api/v1/features", nil, "", "")
	decode(t, env, &features)
	assert.Len(t, features, 9)

	status, env = s.json(t, fiber.MethodPost, "/api/v1/feature", map[string]string{"name": "Solar Panels"}, s.token)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "name already exists", env.Message)

	status, _ = s.json(t, fiber.MethodDelete, "/api/v1/features", map[string][]uint{"ids": {1, 2}}, s.token)
	assert.Equal(t, http.StatusNoContent, status)

	_, env = s.do(t, fiber.MethodGet, "/api/v1/features", nil, "", "")
	decode(t, env, &features)
	assert.Len(t, features, 7)
}

func TestPropertyTypeInUseCannotBeDeleted(t *testing.T) {
	s := newServer(t)
	s.createProperty(t, "Park Lane Flat")

	status, _ := s.do(t, fiber.MethodDelete, "/api/v1/2/propertytype", nil, "", s.token)
	assert.Equal(t, http.StatusConflict, status)

	status, env := s.do(t, fiber.MethodGet, "/api/v1/apartment/propertytypebyname", nil, "", "")
	require.Equal(t, http.StatusOK, status)
	var pt model.PropertyType
	decode(t, env, &pt)
	assert.Equal(t, uint(2), pt.ID)
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)

	signup := map[string]interface{}{
		"username":        "wanjiru",
		"email":           "Wanjiru@Example.com",
		"password":        "Str0ng!pass",
		"confirmPassword": "Str0ng!pass",
		"firstName":       "Wanjiru",
		"lastName":        "Kamau",
		"contact":         "+254700000000",
	}
	status, env := s.json(t, fiber.MethodPost, "/api/v1/signup", signup, "")
	require.Equal(t, http.StatusCreated, status, env.Message)
	var registered struct {
		Token string                 `json:"token"`
		User  map[string]interface{} `json:"user"`
	}
	decode(t, env, &registered)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "wanjiru@example.com", registered.User["email"])
	assert.Equal(t, "Wanjiru Kamau", registered.User["fullName"])
	userID := uint(registered.User["id"].(float64))

	status, env = s.json(t, fiber.MethodPost, "/api/v1/signup", signup, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email already exists", env.Message)

	status, env = s.json(t, fiber.MethodPost, "/api/v1/login", map[string]string{"email": "wanjiru@example.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid credentials", env.Message)

	status, _ = s.json(t, fiber.MethodPost, "/api/v1/password/forgot", map[string]string{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, s.mailer.Sent())

	status, _ = s.json(t, fiber.MethodPost, "/api/v1/password/forgot", map[string]string{"email": "wanjiru@example.com"}, "")
	require.Equal(t, http.StatusOK, status)
	sent := s.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "password_reset", sent[0].Kind)
	link, err := url.Parse(sent[0].Data)
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", link.Path)
	resetToken := link.Query().Get("token")

	status, _ = s.json(t, fiber.MethodPost, "/api/v1/password/reset", map[string]string{
		"token": registered.Token, "password": "N3w!password", "confirmPassword": "N3w!password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, status, "access tokens cannot reset passwords")

	status, env = s.json(t, fiber.MethodPost, "/api/v1/password/reset", map[string]string{
		"token": resetToken, "password": "N3w!password", "confirmPassword": "N3w!password",
	}, "")
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = s.json(t, fiber.MethodPost, "/api/v1/login", map[string]string{"email": "wanjiru@example.com", "password": "N3w!password"}, "")
	require.Equal(t, http.StatusOK, status, env.Message)
	var loggedIn struct {
		Token string `json:"token"`
	}
	decode(t, env, &loggedIn)

	status, _ = s.do(t, fiber.MethodGet, "/api/v1/"+itoa(userID)+"/user", nil, "", loggedIn.Token)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, fiber.MethodGet, "/api/v1/"+itoa(userID+1)+"/user", nil, "", loggedIn.Token)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.json(t, fiber.MethodPatch, "/api/v1/updateuser", map[string]interface{}{"id": userID, "lastName": "Otieno"}, loggedIn.Token)
	require.Equal(t, http.StatusOK, status, env.Message)
	var profile map[string]interface{}
	decode(t, env, &profile)
	assert.Equal(t, "Wanjiru Otieno", profile["fullName"])

	status, _ = s.json(t, fiber.MethodPatch, "/api/v1/updateuser", map[string]interface{}{"id": userID + 1, "lastName": "X"}, loggedIn.Token)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestConnectionNotifiesAdmin(t *testing.T) {
	s := newServer(t)
	property := s.createProperty(t, "Park Lane Flat")

	status, env := s.json(t, fiber.MethodPost, "/api/v1/connection", map[string]interface{}{
		"propertyId": property.ID,
		"name":       "Baraka",
		"email":      "baraka@example.com",
		"phone":      "+254711111111",
		"message":    "Can I view it on Saturday?",
	}, "")
	require.Equal(t, http.StatusCreated, status, env.Message)

	sent := s.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, email.Sent{Kind: "connection", To: adminEmail, Data: "baraka@example.com"}, sent[0])

	status, _ = s.json(t, fiber.MethodPost, "/api/v1/connection", map[string]interface{}{
		"propertyId": 999, "name": "B", "email": "b@example.com", "phone": "1", "message": "hi",
	}, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.do(t, fiber.MethodGet, "/api/v1/connections?unread=true", nil, "", s.token)
	require.Equal(t, http.StatusOK, status)
	var conns []model.Connection
	decode(t, env, &conns)
	require.Len(t, conns, 1)
	require.NotNil(t, conns[0].Property)
	assert.Equal(t, "Park Lane Flat", conns[0].Property.Name)
}

func TestAccessRequestStatusSendsEmail(t *testing.T) {
	s := newServer(t)

	status, env := s.json(t, fiber.MethodPost, "/api/v1/requestuseraccess", map[string]string{"email": "Agent@Example.com"}, "")
	require.Equal(t, http.StatusCreated, status)
	var request model.AccessRequest
	decode(t, env, &request)
	assert.Equal(t, "agent@example.com", request.Email)
	assert.Equal(t, model.AccessStatusPending, request.Status)

	status, env = s.json(t, fiber.MethodPost, "/api/v1/requestuseraccess", map[string]string{"email": "agent@example.com"}, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "an access request for this email already exists", env.Message)

	status, _ = s.json(t, fiber.MethodPatch, "/api/v1/requestuser", map[string]interface{}{"id": request.ID, "status": "PENDING"}, s.token)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, s.mailer.Sent())

	status, _ = s.json(t, fiber.MethodPatch, "/api/v1/requestuser", map[string]interface{}{"id": request.ID, "status": "APPROVED"}, s.token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []email.Sent{{Kind: "access_request", To: "agent@example.com", Data: "APPROVED"}}, s.mailer.Sent())

	status, _ = s.json(t, fiber.MethodPatch, "/api/v1/requestuser", map[string]interface{}{"id": request.ID, "status": "MAYBE"}, s.token)
	assert.Equal(t, http.StatusBadRequest, status)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
