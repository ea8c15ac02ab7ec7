package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/noteservice"
)

const timeLayout = time.RFC3339

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// AdminHandler implements the Bearer-protected migration endpoints.
type AdminHandler struct {
	svc *noteservice.Service
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *noteservice.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// exportedNote carries the note fields that stay server-side in the public
// API, edit token included, so a dump can be replayed elsewhere.
type exportedNote struct {
	Hashcode   string `json:"hashcode"`
	Title      string `json:"title,omitempty"`
	Author     string `json:"author,omitempty"`
	Content    string `json:"content"`
	LinkTarget string `json:"link_target,omitempty"`
	EditToken  string `json:"edit_token"`
	Views      int64  `json:"views"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// Export handles GET /api/admin/export.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Export(r.Context())
	if err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	out := make([]exportedNote, 0, len(notes))
	for _, n := range notes {
		e := exportedNote{
			Hashcode:   n.Hashcode,
			Title:      n.Title,
			Author:     n.Author,
			Content:    n.Content,
			LinkTarget: n.LinkTarget,
			EditToken:  n.EditToken,
			Views:      n.Views,
		}
		if !n.CreatedAt.IsZero() {
			e.CreatedAt = n.CreatedAt.Format(timeLayout)
		}
		if !n.UpdatedAt.IsZero() {
			e.UpdatedAt = n.UpdatedAt.Format(timeLayout)
		}
		out = append(out, e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": out, "total": len(out)})
}

// Import handles POST /api/admin/import. Notes whose hashcode already
// exists are skipped, so replays are safe.
func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 50<<20)
	var req struct {
		Notes []exportedNote `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	notes := make([]models.Note, 0, len(req.Notes))
	for _, e := range req.Notes {
		n := models.Note{
			Hashcode:   e.Hashcode,
			Title:      e.Title,
			Author:     e.Author,
			Content:    e.Content,
			LinkTarget: e.LinkTarget,
			EditToken:  e.EditToken,
			Views:      e.Views,
		}
		n.CreatedAt, _ = parseTime(e.CreatedAt)
		n.UpdatedAt, _ = parseTime(e.UpdatedAt)
		notes = append(notes, n)
	}

	imported, skipped, err := h.svc.Import(r.Context(), notes)
	if err != nil {
		slog.Error("import failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"imported": imported,
		"skipped":  skipped,
	})
}
