package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/settings"
	"github.com/starford/ansuz/internal/store"
	"github.com/starford/ansuz/internal/testutil"
)

// testEnv sets up a temp SQLite DB, service, settings, and router.
// adminToken="" means the admin endpoints are disabled.
func testEnv(t *testing.T, adminToken string) (*noteservice.Service, http.Handler) {
	t.Helper()
	svc, router, _ := testEnvFull(t, adminToken, true)
	return svc, router
}

func testEnvFull(t *testing.T, adminToken string, commentsEnabled bool) (*noteservice.Service, http.Handler, *store.DB) {
	t.Helper()

	db := testutil.TestDB(t)
	svc := noteservice.NewService(db, db)

	settingsPath := filepath.Join(t.TempDir(), "settings.yaml")
	if !commentsEnabled {
		if err := os.WriteFile(settingsPath, []byte("enable_comments: false\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	st, err := settings.Load(settingsPath)
	if err != nil {
		t.Fatalf("settings.Load: %v", err)
	}

	router := NewRouter(svc, db, st, RouterConfig{
		BaseURL:      "http://example.test",
		MediaDir:     t.TempDir(),
		AdminEnabled: adminToken != "",
		AdminToken:   adminToken,
	})
	return svc, router, db
}

type envelope struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

func postJSON(t *testing.T, router http.Handler, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func resultMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(env.Result, &m); err != nil {
		t.Fatalf("result decode: %v", err)
	}
	return m
}

// --- Web pages ---

func TestWeb_PublishFlow(t *testing.T) {
	_, router := testEnv(t, "")

	form := url.Values{"content": {"# Hello\n\nWorld"}}
	req := httptest.NewRequest(http.MethodPost, "/publish", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("publish status = %d", w.Code)
	}
	loc := w.Header().Get("Location")
	hashcode := strings.TrimPrefix(loc, "/")
	if len(hashcode) != 8 {
		t.Fatalf("redirect location = %q, want /{8-char hashcode}", loc)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "edit_token_"+hashcode {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("edit token cookie not set")
	}
	if cookie.MaxAge != editTokenMaxAge {
		t.Errorf("cookie max-age = %d", cookie.MaxAge)
	}

	// The note renders.
	req = httptest.NewRequest(http.MethodGet, loc, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("view status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<h1>Hello</h1>") {
		t.Errorf("rendered page missing heading: %s", w.Body.String())
	}
}

func TestWeb_PublishEmptyRedirectsHome(t *testing.T) {
	_, router := testEnv(t, "")

	form := url.Values{"content": {"   "}}
	req := httptest.NewRequest(http.MethodPost, "/publish", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusFound || w.Header().Get("Location") != "/" {
		t.Errorf("status = %d, location = %q", w.Code, w.Header().Get("Location"))
	}
}

func TestWeb_UnknownNote404(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/nosuchno", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestWeb_EditRequiresToken(t *testing.T) {
	svc, router := testEnv(t, "")

	n, err := svc.Publish(context.Background(), "secret note")
	if err != nil {
		t.Fatal(err)
	}

	// No token: indistinguishable from a missing note.
	req := httptest.NewRequest(http.MethodGet, "/"+n.Hashcode+"/edit", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("no token status = %d, want 404", w.Code)
	}

	// URL token opens the editor.
	req = httptest.NewRequest(http.MethodGet, "/"+n.Hashcode+"/edit?token="+n.EditToken, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("url token status = %d", w.Code)
	}

	// Cookie token saves an edit.
	form := url.Values{"content": {"updated note"}}
	req = httptest.NewRequest(http.MethodPost, "/"+n.Hashcode+"/edit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "edit_token_" + n.Hashcode, Value: n.EditToken})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Fatalf("edit status = %d", w.Code)
	}

	got, _ := svc.Get(context.Background(), n.Hashcode)
	if got.Content != "updated note" {
		t.Errorf("content = %q", got.Content)
	}
}

func TestWeb_ViewCountsViews(t *testing.T) {
	svc, router := testEnv(t, "")

	n, err := svc.Publish(context.Background(), "counted")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/"+n.Hashcode, nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	views, err := svc.Views(context.Background(), n.Hashcode)
	if err != nil {
		t.Fatal(err)
	}
	if views != 2 {
		t.Errorf("views = %d, want 2", views)
	}
}

// --- Telegraph API ---

func TestTelegraph_CreatePage(t *testing.T) {
	_, router := testEnv(t, "")

	content := `[{"tag":"p","children":["Hello World"]}]`
	w, env := postJSON(t, router, "/api/createPage", map[string]any{
		"title":       "Test Page",
		"author_name": "Tester",
		"content":     content,
	})
	if w.Code != http.StatusOK || !env.OK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	result := resultMap(t, env)
	if result["title"] != "Test Page" || result["author_name"] != "Tester" {
		t.Errorf("result = %v", result)
	}
	if result["path"] == "" {
		t.Error("path missing")
	}
	nodes, ok := result["content"].([]any)
	if !ok || len(nodes) != 1 {
		t.Fatalf("content = %v", result["content"])
	}
}

func TestTelegraph_CreatePage_FormEncoded(t *testing.T) {
	_, router := testEnv(t, "")

	form := url.Values{
		"title":   {"Post Note"},
		"content": {`[{"tag":"p","children":["Form body"]}]`},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/createPage", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if w.Code != http.StatusOK || !env.OK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if resultMap(t, env)["title"] != "Post Note" {
		t.Errorf("result = %s", env.Result)
	}
}

func TestTelegraph_CreatePage_MissingFields(t *testing.T) {
	_, router := testEnv(t, "")

	w, env := postJSON(t, router, "/api/createPage", map[string]any{
		"content": `[{"tag":"p","children":["x"]}]`,
	})
	if w.Code != http.StatusBadRequest || env.OK || env.Error != codeTitleRequired {
		t.Errorf("missing title: status = %d, error = %q", w.Code, env.Error)
	}

	w, env = postJSON(t, router, "/api/createPage", map[string]any{"title": "T"})
	if w.Code != http.StatusBadRequest || env.Error != codeContentRequired {
		t.Errorf("missing content: status = %d, error = %q", w.Code, env.Error)
	}
}

func TestTelegraph_GetPage_ContentOptIn(t *testing.T) {
	_, router := testEnv(t, "")

	_, env := postJSON(t, router, "/api/createPage", map[string]any{
		"title":   "My Note",
		"content": `[{"tag":"p","children":["Body"]}]`,
	})
	path := resultMap(t, env)["path"].(string)

	// Default: no content field.
	req := httptest.NewRequest(http.MethodGet, "/api/getPage/"+path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var got envelope
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if !got.OK {
		t.Fatalf("body = %s", w.Body.String())
	}
	if _, has := resultMap(t, got)["content"]; has {
		t.Error("content should be omitted without return_content")
	}

	// Opt in.
	req = httptest.NewRequest(http.MethodGet, "/api/getPage/"+path+"?return_content=true", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if _, has := resultMap(t, got)["content"]; !has {
		t.Error("content missing with return_content=true")
	}
}

func TestTelegraph_GetPage_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/getPage/missing1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if w.Code != http.StatusNotFound || env.Error != codePageNotFound {
		t.Errorf("status = %d, error = %q", w.Code, env.Error)
	}
}

func TestTelegraph_AccountLifecycle(t *testing.T) {
	_, router := testEnv(t, "")

	w, env := postJSON(t, router, "/api/createAccount", map[string]any{
		"short_name":  "test_user",
		"author_name": "Test Author",
	})
	if w.Code != http.StatusOK || !env.OK {
		t.Fatalf("createAccount: %s", w.Body.String())
	}
	result := resultMap(t, env)
	token, _ := result["access_token"].(string)
	if result["short_name"] != "test_user" || token == "" {
		t.Fatalf("result = %v", result)
	}

	// Account info with page count.
	_, env = postJSON(t, router, "/api/getAccountInfo", map[string]any{"access_token": token})
	info := resultMap(t, env)
	if info["short_name"] != "test_user" || info["page_count"] != float64(0) {
		t.Errorf("info = %v", info)
	}

	// Rotate; old token dies immediately.
	_, env = postJSON(t, router, "/api/revokeAccessToken", map[string]any{"access_token": token})
	newToken, _ := resultMap(t, env)["access_token"].(string)
	if newToken == "" || newToken == token {
		t.Fatalf("rotation result = %s", env.Result)
	}
	w, env = postJSON(t, router, "/api/getAccountInfo", map[string]any{"access_token": token})
	if w.Code != http.StatusUnauthorized || env.OK {
		t.Errorf("old token: status = %d, ok = %v", w.Code, env.OK)
	}
}

func TestTelegraph_CreateAccount_ShortNameRequired(t *testing.T) {
	_, router := testEnv(t, "")

	w, env := postJSON(t, router, "/api/createAccount", map[string]any{"author_name": "x"})
	if w.Code != http.StatusBadRequest || env.Error != codeShortNameRequired {
		t.Errorf("status = %d, error = %q", w.Code, env.Error)
	}
}

func TestTelegraph_EditPage_CrossAccountDenied(t *testing.T) {
	_, router := testEnv(t, "")

	_, env := postJSON(t, router, "/api/createAccount", map[string]any{"short_name": "owner"})
	ownerToken := resultMap(t, env)["access_token"].(string)
	_, env = postJSON(t, router, "/api/createAccount", map[string]any{"short_name": "intruder"})
	intruderToken := resultMap(t, env)["access_token"].(string)

	_, env = postJSON(t, router, "/api/createPage", map[string]any{
		"access_token": ownerToken,
		"title":        "Owned",
		"content":      `[{"tag":"p","children":["mine"]}]`,
	})
	path := resultMap(t, env)["path"].(string)

	w, env := postJSON(t, router, "/api/editPage/"+path, map[string]any{
		"access_token": intruderToken,
		"title":        "Hacked",
		"content":      `[{"tag":"p","children":["stolen"]}]`,
	})
	if w.Code != http.StatusForbidden || env.Error != codePageAccessDenied {
		t.Errorf("status = %d, error = %q", w.Code, env.Error)
	}
}

func TestTelegraph_GetPageList(t *testing.T) {
	_, router := testEnv(t, "")

	_, env := postJSON(t, router, "/api/createAccount", map[string]any{"short_name": "lister"})
	token := resultMap(t, env)["access_token"].(string)

	for _, title := range []string{"P1", "P2"} {
		_, env = postJSON(t, router, "/api/createPage", map[string]any{
			"access_token": token,
			"title":        title,
			"content":      `[{"tag":"p","children":["x"]}]`,
		})
		if !env.OK {
			t.Fatalf("createPage %s: %s", title, env.Error)
		}
	}

	_, env = postJSON(t, router, "/api/getPageList", map[string]any{"access_token": token})
	result := resultMap(t, env)
	if result["total_count"] != float64(2) {
		t.Fatalf("total_count = %v", result["total_count"])
	}
	pages := result["pages"].([]any)
	first := pages[0].(map[string]any)
	if first["title"] != "P2" {
		t.Errorf("pages[0] = %v, want latest first", first)
	}
}

func TestTelegraph_GetViews(t *testing.T) {
	svc, router := testEnv(t, "")

	n, err := svc.Publish(context.Background(), "viewed")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/getViews/"+n.Hashcode, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if resultMap(t, env)["views"] != float64(0) {
		t.Errorf("views = %s", env.Result)
	}

	// A web render counts.
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/"+n.Hashcode, nil))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/getViews/"+n.Hashcode, nil))
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	if resultMap(t, env)["views"] != float64(1) {
		t.Errorf("views after render = %s", env.Result)
	}
}
