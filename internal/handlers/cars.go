package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carrental-web/internal/listview"
	"github.com/ukydev/carrental-web/internal/middleware"
	"github.com/ukydev/carrental-web/internal/models"
	"github.com/ukydev/carrental-web/internal/notify"
)

// CarListHandler serves the car list page and its card actions. Every
// request mounts its own view and unmounts it once the response is written.
type CarListHandler struct {
	cars        listview.CarAPI
	notifier    listview.Notifier
	flash       *notify.Flash
	frontendURL string
	templates   map[string]*template.Template
}

// NewCarListHandler creates a new car list handler. Edit, booking and login
// redirects are resolved against frontendURL.
func NewCarListHandler(cars listview.CarAPI, images ImageResolver, notifier listview.Notifier, flash *notify.Flash, frontendURL string) (*CarListHandler, error) {
	tmpl, err := parseTemplates(images)
	if err != nil {
		return nil, err
	}
	if flash == nil {
		flash = notify.NewFlash()
	}

	return &CarListHandler{
		cars:        cars,
		notifier:    notifier,
		flash:       flash,
		frontendURL: frontendURL,
		templates:   tmpl,
	}, nil
}

// List renders the car grid, filtered by the q query parameter
func (h *CarListHandler) List(w http.ResponseWriter, r *http.Request) {
	session := sessionOf(r)
	view := h.newView(r, session, listview.Declined)
	defer view.Unmount()

	if err := view.Mount(r.Context()); err != nil && r.Context().Err() != nil {
		return
	}
	view.SetQuery(r.URL.Query().Get("q"))

	snap := view.Snapshot()
	status := http.StatusOK
	if snap.Phase == listview.PhaseLoadFailed {
		status = http.StatusBadGateway
	}

	h.render(w, status, "list.html", ListPage{
		PageData: h.pageData(session, "Cars"),
		Phase:    snap.Phase.String(),
		View:     snap,
	})
}

// ConfirmDelete asks the admin to confirm removing a car
func (h *CarListHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	session := sessionOf(r)
	id := r.PathValue("id")

	view := h.newView(r, session, listview.Declined)
	defer view.Unmount()

	if err := view.Mount(r.Context()); err != nil {
		if r.Context().Err() == nil {
			http.Error(w, "Failed to load cars", http.StatusBadGateway)
		}
		return
	}

	items := view.Items()
	idx := models.IndexOfCar(items, id)
	if idx < 0 {
		http.Error(w, "Car not found", http.StatusNotFound)
		return
	}

	h.render(w, http.StatusOK, "confirm.html", ConfirmPage{
		PageData: h.pageData(session, "Delete car"),
		Prompt:   listview.DeletePrompt,
		Car:      items[idx],
		Query:    r.URL.Query().Get("q"),
	})
}

// Delete removes a car once the confirmation form was answered with yes.
// The outcome is reported as a toast on the list page it redirects to.
func (h *CarListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	session := sessionOf(r)
	id := r.PathValue("id")
	back := listURL(r.PostFormValue("q"))

	confirmer := listview.Declined
	if r.PostFormValue("confirm") == "yes" {
		confirmer = listview.Confirmed
	}

	view := h.newView(r, session, confirmer)
	defer view.Unmount()

	if err := view.Mount(r.Context()); err != nil {
		if r.Context().Err() == nil {
			http.Error(w, "Failed to load cars", http.StatusBadGateway)
		}
		return
	}

	err := view.Delete(r.Context(), id)
	switch {
	case err == nil, errors.Is(err, listview.ErrCancelled):
	case errors.Is(err, listview.ErrForbidden):
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	case errors.Is(err, listview.ErrNotFound):
		http.Error(w, "Car not found", http.StatusNotFound)
		return
	case errors.Is(err, listview.ErrDeletePending):
		http.Error(w, "Delete already in progress", http.StatusConflict)
		return
	default:
		// backend failures were already reported through the notifier
		log.WithError(err).WithField("car_id", id).Debug("Delete request failed")
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}

// Edit redirects an admin to the edit view of a car
func (h *CarListHandler) Edit(w http.ResponseWriter, r *http.Request) {
	view := listview.New(h.cars, sessionOf(r))

	route, err := view.Edit(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}
	http.Redirect(w, r, h.frontendURL+route.Path, http.StatusFound)
}

// Book redirects to the booking view, or to login for guests
func (h *CarListHandler) Book(w http.ResponseWriter, r *http.Request) {
	view := listview.New(h.cars, sessionOf(r))

	route := view.Book(r.PathValue("id"))
	http.Redirect(w, r, h.frontendURL+route.Path, http.StatusFound)
}

func (h *CarListHandler) newView(r *http.Request, session models.Session, confirmer listview.Confirmer) *listview.View {
	opts := []listview.Option{
		listview.WithConfirmer(confirmer),
		listview.WithAudience(audienceOf(session)),
		listview.WithLogger(log.WithFields(log.Fields{
			"component": "listview",
			"path":      r.URL.Path,
		})),
	}
	if h.notifier != nil {
		opts = append(opts, listview.WithNotifier(h.notifier))
	}
	return listview.New(h.cars, session, opts...)
}

func (h *CarListHandler) pageData(session models.Session, title string) PageData {
	return PageData{
		Title:    title,
		Session:  session,
		LoginURL: h.frontendURL + listview.LoginPath,
		Toasts:   h.flash.Drain(audienceOf(session)),
	}
}

// sessionOf returns the request session; requests that skipped the
// identify middleware are guests.
func sessionOf(r *http.Request) models.Session {
	session, _ := middleware.GetSessionFromContext(r.Context())
	return session
}

// audienceOf keys the flash queue by user.
func audienceOf(session models.Session) string {
	if session.User == nil {
		return ""
	}
	return session.User.ID
}

func listURL(query string) string {
	if query == "" {
		return "/"
	}
	return "/?" + url.Values{"q": {query}}.Encode()
}
