package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/settings"
	"github.com/starford/ansuz/internal/store"
)

// CommentHandler implements the paragraph comment API. The whole surface
// is gated by the runtime comments switch in settings.
type CommentHandler struct {
	comments store.CommentStore
	settings *settings.Store
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments store.CommentStore, st *settings.Store) *CommentHandler {
	return &CommentHandler{comments: comments, settings: st}
}

// enabled writes the disabled response and returns false when the comment
// API is switched off.
func (h *CommentHandler) enabled(w http.ResponseWriter) bool {
	if h.settings.Current().EnableComments {
		return true
	}
	writeAPIError(w, http.StatusForbidden, "COMMENTS_DISABLED")
	return false
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already resolved forwarded headers upstream.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}

// List handles GET /api/comments.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	q := r.URL.Query()
	siteID, workID, chapterID := q.Get("site_id"), q.Get("work_id"), q.Get("chapter_id")
	if siteID == "" || workID == "" || chapterID == "" {
		writeAPIError(w, http.StatusBadRequest, "CHAPTER_REQUIRED")
		return
	}
	paraIndex := -1
	if raw := q.Get("para_index"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, "PARA_INDEX_INVALID")
			return
		}
		paraIndex = n
	}

	list, err := h.comments.ListComments(r.Context(), siteID, workID, chapterID, paraIndex)
	if err != nil {
		slog.Error("list comments failed", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, codeInternal)
		return
	}
	writeResult(w, map[string]any{"comments": list})
}

// Create handles POST /api/comments.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BODY_INVALID")
		return
	}
	if err := req.Validate(); err != nil {
		writeAPIError(w, http.StatusBadRequest, "COMMENT_INVALID")
		return
	}

	ip := clientIP(r)
	banned, err := h.comments.IsBanned(r.Context(), req.UserID, ip)
	if err != nil {
		slog.Error("ban check failed", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, codeInternal)
		return
	}
	if banned {
		writeAPIError(w, http.StatusForbidden, "USER_BANNED")
		return
	}

	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = models.AnonymousName
	}
	c := &models.Comment{
		SiteID:      req.SiteID,
		WorkID:      req.WorkID,
		ChapterID:   req.ChapterID,
		ParaIndex:   req.ParaIndex,
		Content:     strings.TrimSpace(req.Content),
		UserName:    name,
		UserID:      req.UserID,
		UserAvatar:  req.UserAvatar,
		ContextText: req.ContextText,
		IP:          ip,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.comments.CreateComment(r.Context(), c); err != nil {
		slog.Error("create comment failed", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, codeInternal)
		return
	}
	writeResult(w, c)
}

// Like handles POST /api/comments/{id}/like. One like per identity; a
// repeat from the same user or IP is a conflict and does not change the
// count.
func (h *CommentHandler) Like(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "COMMENT_ID_INVALID")
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ip := ""
	if req.UserID == "" {
		ip = clientIP(r)
	}
	err = h.comments.AddLike(r.Context(), id, req.UserID, ip)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeAPIError(w, http.StatusConflict, "ALREADY_LIKED")
		return
	case errors.Is(err, apperr.ErrNotFound):
		writeAPIError(w, http.StatusNotFound, "COMMENT_NOT_FOUND")
		return
	default:
		slog.Error("like failed", slog.Int64("comment", id), slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, codeInternal)
		return
	}

	c, err := h.comments.GetComment(r.Context(), id)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, codeInternal)
		return
	}
	writeResult(w, map[string]any{"likes": c.Likes})
}
