package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/telegraph"
)

// TelegraphHandler implements the Telegraph-compatible JSON API.
type TelegraphHandler struct {
	svc     *noteservice.Service
	baseURL string
}

// NewTelegraphHandler creates a new TelegraphHandler. baseURL is the public
// origin used to build absolute page URLs.
func NewTelegraphHandler(svc *noteservice.Service, baseURL string) *TelegraphHandler {
	return &TelegraphHandler{svc: svc, baseURL: baseURL}
}

func (h *TelegraphHandler) pageURL(hashcode string) string {
	return h.baseURL + "/" + hashcode
}

// pageResult builds the page object returned by the page endpoints.
// content is included only when returnContent is set.
func (h *TelegraphHandler) pageResult(n *models.Note, returnContent bool) map[string]any {
	result := map[string]any{
		"path":        n.Hashcode,
		"url":         h.pageURL(n.Hashcode),
		"title":       n.Title,
		"author_name": n.Author,
		"views":       n.Views,
	}
	if returnContent {
		result["content"] = telegraph.MarkdownToNodes(n.Content)
	}
	return result
}

func accountResult(a *models.Account, withToken bool) map[string]any {
	result := map[string]any{
		"short_name":  a.ShortName,
		"author_name": a.AuthorName,
		"author_url":  a.AuthorURL,
	}
	if withToken {
		result["access_token"] = a.AccessToken
	}
	return result
}

// CreateAccount handles POST /api/createAccount.
func (h *TelegraphHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	req, err := bindPageRequest(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeContentInvalid)
		return
	}
	if req.ShortName == "" {
		writeAPIError(w, http.StatusBadRequest, codeShortNameRequired)
		return
	}
	a, err := h.svc.CreateAccount(r.Context(), req.ShortName, req.AuthorName, req.AuthorURL)
	if err != nil {
		slog.Error("create account failed", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, codeInternal)
		return
	}
	writeResult(w, accountResult(a, true))
}

// GetAccountInfo handles POST /api/getAccountInfo.
func (h *TelegraphHandler) GetAccountInfo(w http.ResponseWriter, r *http.Request) {
	req, err := bindPageRequest(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeContentInvalid)
		return
	}
	a, err := h.svc.Account(r.Context(), req.AccessToken)
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, codeAccessTokenInvalid)
		return
	}
	result := accountResult(a, false)
	count, err := h.svc.PageCount(r.Context(), a.ID)
	if err != nil {
		slog.Error("page count failed", slog.Int64("account", a.ID), slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, codeInternal)
		return
	}
	result["page_count"] = count
	writeResult(w, result)
}

// RevokeAccessToken handles POST /api/revokeAccessToken. The old token is
// invalid as soon as this returns.
func (h *TelegraphHandler) RevokeAccessToken(w http.ResponseWriter, r *http.Request) {
	req, err := bindPageRequest(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeContentInvalid)
		return
	}
	a, err := h.svc.RevokeAccessToken(r.Context(), req.AccessToken)
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, codeAccessTokenInvalid)
		return
	}
	writeResult(w, accountResult(a, true))
}

// CreatePage handles POST /api/createPage.
func (h *TelegraphHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	req, err := bindPageRequest(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeContentInvalid)
		return
	}
	if req.Title == "" {
		writeAPIError(w, http.StatusBadRequest, codeTitleRequired)
		return
	}
	if req.Content == "" {
		writeAPIError(w, http.StatusBadRequest, codeContentRequired)
		return
	}
	nodes, err := telegraph.ParseNodes([]byte(req.Content))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeContentInvalid)
		return
	}

	n, err := h.svc.CreatePage(r.Context(), req.AccessToken, req.Title, req.AuthorName, nodes)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrPermission):
		writeAPIError(w, http.StatusUnauthorized, codeAccessTokenInvalid)
		return
	case errors.Is(err, apperr.ErrInvalid):
		writeAPIError(w, http.StatusBadRequest, codeContentRequired)
		return
	default:
		slog.Error("create page failed", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, codeInternal)
		return
	}
	writeResult(w, h.pageResult(n, true))
}

// GetPage handles GET|POST /api/getPage/{path} and POST /api/getPage with
// the path in the body.
func (h *TelegraphHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	req, err := bindPageRequest(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeContentInvalid)
		return
	}
	path := chi.URLParam(r, "path")
	if path == "" {
		path = req.Path
	}
	if path == "" {
		writeAPIError(w, http.StatusNotFound, codePageNotFound)
		return
	}
	n, err := h.svc.Get(r.Context(), path)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, codePageNotFound)
		return
	}
	writeResult(w, h.pageResult(n, bool(req.ReturnContent)))
}

// EditPage handles POST /api/editPage/{path}.
func (h *TelegraphHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	req, err := bindPageRequest(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeContentInvalid)
		return
	}
	path := chi.URLParam(r, "path")
	if path == "" {
		path = req.Path
	}
	if req.Content == "" {
		writeAPIError(w, http.StatusBadRequest, codeContentRequired)
		return
	}
	nodes, err := telegraph.ParseNodes([]byte(req.Content))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeContentInvalid)
		return
	}

	n, err := h.svc.EditPage(r.Context(), path, req.AccessToken, req.Title, req.AuthorName, nodes)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNotFound):
		writeAPIError(w, http.StatusNotFound, codePageNotFound)
		return
	case errors.Is(err, apperr.ErrPermission):
		writeAPIError(w, http.StatusForbidden, codePageAccessDenied)
		return
	default:
		slog.Error("edit page failed", slog.String("path", path), slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, codeInternal)
		return
	}
	writeResult(w, h.pageResult(n, true))
}

// GetPageList handles POST /api/getPageList.
func (h *TelegraphHandler) GetPageList(w http.ResponseWriter, r *http.Request) {
	req, err := bindPageRequest(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, codeContentInvalid)
		return
	}
	notes, total, err := h.svc.PageList(r.Context(), req.AccessToken, req.Limit, req.Offset)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrNotFound):
		writeAPIError(w, http.StatusUnauthorized, codeAccessTokenInvalid)
		return
	default:
		slog.Error("page list failed", slog.String("error", err.Error()))
		writeAPIError(w, http.StatusInternalServerError, codeInternal)
		return
	}
	pages := make([]map[string]any, 0, len(notes))
	for i := range notes {
		pages = append(pages, h.pageResult(&notes[i], false))
	}
	writeResult(w, map[string]any{
		"total_count": total,
		"pages":       pages,
	})
}

// GetViews handles GET|POST /api/getViews/{path}.
func (h *TelegraphHandler) GetViews(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")
	views, err := h.svc.Views(r.Context(), path)
	if err != nil {
		writeAPIError(w, http.StatusNotFound, codePageNotFound)
		return
	}
	writeResult(w, map[string]any{"views": views})
}
