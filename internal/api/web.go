package api

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/settings"
)

//go:embed templates/*.html
var templateFS embed.FS

const editTokenMaxAge = 31536000 // one year

// WebHandler serves the server-rendered editor and note pages.
type WebHandler struct {
	svc      *noteservice.Service
	settings *settings.Store
	tmpl     *template.Template
}

// NewWebHandler creates a new WebHandler.
func NewWebHandler(svc *noteservice.Service, st *settings.Store) *WebHandler {
	return &WebHandler{
		svc:      svc,
		settings: st,
		tmpl:     template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

func cookieName(hashcode string) string {
	return "edit_token_" + hashcode
}

func (h *WebHandler) renderPage(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", slog.String("template", name), slog.String("error", err.Error()))
	}
}

func (h *WebHandler) notFound(w http.ResponseWriter) {
	h.renderPage(w, http.StatusNotFound, "404.html", nil)
}

type editorData struct {
	Note         *models.Note
	Announcement string
}

// Home handles GET /.
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, http.StatusOK, "editor.html", editorData{
		Announcement: h.settings.Current().Announcement,
	})
}

// Publish handles POST /publish. A successful publish sets the edit token
// cookie scoped to the new note and redirects to it; empty content goes
// back to the editor.
func (h *WebHandler) Publish(w http.ResponseWriter, r *http.Request) {
	content := r.PostFormValue("content")
	n, err := h.svc.Publish(r.Context(), content)
	if err != nil {
		if !errors.Is(err, apperr.ErrInvalid) {
			slog.Error("publish failed", slog.String("error", err.Error()))
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:   cookieName(n.Hashcode),
		Value:  n.EditToken,
		Path:   "/",
		MaxAge: editTokenMaxAge,
	})
	http.Redirect(w, r, "/"+n.Hashcode, http.StatusFound)
}

// tokens pulls the cookie and query-parameter edit tokens from the request.
func tokens(r *http.Request, hashcode string) (cookieToken, urlToken string) {
	if c, err := r.Cookie(cookieName(hashcode)); err == nil {
		cookieToken = c.Value
	}
	return cookieToken, r.URL.Query().Get("token")
}

type viewData struct {
	Note    *models.Note
	Content template.HTML
	CanEdit bool
	Meta    render.Metadata
}

// ViewNote handles GET /{hashcode}. Every render counts one view.
func (h *WebHandler) ViewNote(w http.ResponseWriter, r *http.Request) {
	hashcode := chi.URLParam(r, "hashcode")
	n, err := h.svc.View(r.Context(), hashcode)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			slog.Error("view note failed", slog.String("hashcode", hashcode), slog.String("error", err.Error()))
		}
		h.notFound(w)
		return
	}

	cookieToken, urlToken := tokens(r, hashcode)
	h.renderPage(w, http.StatusOK, "view.html", viewData{
		Note:    n,
		Content: template.HTML(render.HTML(n.Content, n.LinkTarget)),
		CanEdit: h.svc.CanEdit(n, cookieToken, urlToken),
		Meta:    render.ExtractMetadata(n),
	})
}

// EditNote handles GET|POST /{hashcode}/edit. A request without a valid
// edit token gets a 404, indistinguishable from a missing note.
func (h *WebHandler) EditNote(w http.ResponseWriter, r *http.Request) {
	hashcode := chi.URLParam(r, "hashcode")
	n, err := h.svc.Get(r.Context(), hashcode)
	if err != nil {
		h.notFound(w)
		return
	}

	cookieToken, urlToken := tokens(r, hashcode)
	if !h.svc.CanEdit(n, cookieToken, urlToken) {
		h.notFound(w)
		return
	}

	if r.Method == http.MethodPost {
		content := r.PostFormValue("content")
		if _, err := h.svc.Edit(r.Context(), hashcode, cookieToken, urlToken, content); err == nil {
			http.Redirect(w, r, "/"+hashcode, http.StatusFound)
			return
		}
	}

	h.renderPage(w, http.StatusOK, "editor.html", editorData{
		Note:         n,
		Announcement: h.settings.Current().Announcement,
	})
}
