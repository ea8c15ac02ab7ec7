package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Telegraph-style error codes returned in the API envelope.
const (
	codeAccessTokenInvalid = "ACCESS_TOKEN_INVALID"
	codePageNotFound       = "PAGE_NOT_FOUND"
	codePageAccessDenied   = "PAGE_ACCESS_DENIED"
	codeShortNameRequired  = "SHORT_NAME_REQUIRED"
	codeTitleRequired      = "TITLE_REQUIRED"
	codeContentRequired    = "CONTENT_REQUIRED"
	codeContentInvalid     = "CONTENT_FORMAT_INVALID"
	codeInternal           = "INTERNAL_ERROR"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// writeResult wraps a successful payload in the {"ok":true,"result":…}
// envelope.
func writeResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"result": result,
	})
}

// writeAPIError wraps an error code in the {"ok":false,"error":…} envelope.
func writeAPIError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{
		"ok":    false,
		"error": code,
	})
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
