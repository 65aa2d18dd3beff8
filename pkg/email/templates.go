package email

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// requiredTemplates are the names the Send methods execute.
var requiredTemplates = []string{
	"password_reset.html",
	"access_request.html",
	"connection_notification.html",
}

var templateFuncs = template.FuncMap{
	"upper": strings.ToUpper,
}

func loadTemplates() (*template.Template, error) {
	t, err := template.New("email").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	for _, name := range requiredTemplates {
		if t.Lookup(name) == nil {
			return nil, fmt.Errorf("missing email template %q", name)
		}
	}
	return t, nil
}
