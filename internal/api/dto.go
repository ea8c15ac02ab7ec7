package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// boolish accepts JSON true/false as well as "true"/"false" strings, which
// form-encoded Telegraph clients send.
type boolish bool

func (b *boolish) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseBool(s)
	if err != nil {
		*b = false
		return nil
	}
	*b = boolish(v)
	return nil
}

// pageRequest is the shared body shape of the Telegraph page endpoints.
// Content carries a JSON-encoded node array as a string.
type pageRequest struct {
	AccessToken   string  `json:"access_token"`
	ShortName     string  `json:"short_name"`
	AuthorName    string  `json:"author_name"`
	AuthorURL     string  `json:"author_url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Path          string  `json:"path"`
	ReturnContent boolish `json:"return_content"`
	Limit         int     `json:"limit"`
	Offset        int     `json:"offset"`
}

// bindPageRequest decodes a Telegraph request from either a JSON body or
// form fields. Query parameters back-fill fields absent from the body, so
// GET requests work too.
func bindPageRequest(r *http.Request) (*pageRequest, error) {
	req := &pageRequest{}

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		req.AccessToken = r.PostFormValue("access_token")
		req.ShortName = r.PostFormValue("short_name")
		req.AuthorName = r.PostFormValue("author_name")
		req.AuthorURL = r.PostFormValue("author_url")
		req.Title = r.PostFormValue("title")
		req.Content = r.PostFormValue("content")
		req.Path = r.PostFormValue("path")
		rc, _ := strconv.ParseBool(r.PostFormValue("return_content"))
		req.ReturnContent = boolish(rc)
		req.Limit, _ = strconv.Atoi(r.PostFormValue("limit"))
		req.Offset, _ = strconv.Atoi(r.PostFormValue("offset"))
	}

	q := r.URL.Query()
	if req.AccessToken == "" {
		req.AccessToken = q.Get("access_token")
	}
	if req.Path == "" {
		req.Path = q.Get("path")
	}
	if !bool(req.ReturnContent) {
		rc, _ := strconv.ParseBool(q.Get("return_content"))
		req.ReturnContent = boolish(rc)
	}
	return req, nil
}

// CreateCommentRequest is the request body for posting a paragraph comment.
type CreateCommentRequest struct {
	SiteID      string `json:"site_id"`
	WorkID      string `json:"work_id"`
	ChapterID   string `json:"chapter_id"`
	ParaIndex   int    `json:"para_index"`
	Content     string `json:"content"`
	UserName    string `json:"user_name"`
	UserID      string `json:"user_id"`
	UserAvatar  string `json:"user_avatar"`
	ContextText string `json:"context_text"`
}

// Validate validates the comment request.
func (r CreateCommentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SiteID, validation.Required),
		validation.Field(&r.WorkID, validation.Required),
		validation.Field(&r.ChapterID, validation.Required),
		validation.Field(&r.ParaIndex, validation.Min(0)),
		validation.Field(&r.Content, validation.Required, validation.Length(1, 2000)),
		validation.Field(&r.UserName, validation.Length(0, 60)),
	)
}
