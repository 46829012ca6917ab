package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carrental-web/internal/listview"
	"github.com/ukydev/carrental-web/internal/models"
	"github.com/ukydev/carrental-web/internal/notify"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ImageResolver turns a car image path into a URL.
type ImageResolver interface {
	ImageURL(imagePath string) string
}

// PageData holds common data for page templates
type PageData struct {
	Title    string
	Session  models.Session
	LoginURL string
	Toasts   []notify.Notification
}

// ListPage is the data of the car list page
type ListPage struct {
	PageData
	Phase string
	View  listview.Snapshot
}

// ConfirmPage is the data of the delete confirmation page
type ConfirmPage struct {
	PageData
	Prompt string
	Car    models.Car
	Query  string
}

func templateFuncMap(images ImageResolver) template.FuncMap {
	return template.FuncMap{
		"imageURL": images.ImageURL,
	}
}

// parseTemplates parses each page together with the layout
func parseTemplates(images ImageResolver) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	for _, page := range []string{"list.html", "confirm.html"} {
		tmpl, err := template.New("").Funcs(templateFuncMap(images)).
			ParseFS(templatesFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return templates, nil
}

func (h *CarListHandler) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := h.templates[page]
	if !ok {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.WithError(err).WithField("page", page).Error("Failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
