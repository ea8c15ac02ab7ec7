package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/settings"
	"github.com/starford/ansuz/internal/store"
)

// RouterConfig carries the handler wiring knobs.
type RouterConfig struct {
	BaseURL      string
	MediaDir     string
	AdminEnabled bool
	AdminToken   string
}

// NewRouter creates a chi router with the web pages, the Telegraph API,
// the comment API, and the admin endpoints mounted.
func NewRouter(svc *noteservice.Service, comments store.CommentStore, st *settings.Store, cfg RouterConfig) chi.Router {
	web := NewWebHandler(svc, st)
	tg := NewTelegraphHandler(svc, cfg.BaseURL)
	cm := NewCommentHandler(comments, st)
	media := NewMediaHandler(cfg.MediaDir)
	admin := NewAdminHandler(svc)

	r := chi.NewRouter()

	// Web pages.
	r.Get("/", web.Home)
	r.Post("/publish", web.Publish)
	r.Get("/{hashcode}", web.ViewNote)
	r.Get("/{hashcode}/edit", web.EditNote)
	r.Post("/{hashcode}/edit", web.EditNote)

	// Media.
	r.Get("/media/{filename}", media.ServeFile)

	r.Route("/api", func(r chi.Router) {
		// Telegraph API.
		r.Post("/createAccount", tg.CreateAccount)
		r.Post("/getAccountInfo", tg.GetAccountInfo)
		r.Post("/revokeAccessToken", tg.RevokeAccessToken)
		r.Post("/createPage", tg.CreatePage)
		r.Get("/getPage/{path}", tg.GetPage)
		r.Post("/getPage/{path}", tg.GetPage)
		r.Post("/getPage", tg.GetPage)
		r.Post("/editPage/{path}", tg.EditPage)
		r.Post("/getPageList", tg.GetPageList)
		r.Get("/getViews/{path}", tg.GetViews)
		r.Post("/getViews/{path}", tg.GetViews)

		// Comments.
		r.Get("/comments", cm.List)
		r.Post("/comments", cm.Create)
		r.Post("/comments/{id}/like", cm.Like)

		// Uploads.
		r.Post("/upload", media.Upload)

		// Admin migration endpoints, Bearer-protected.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.AdminEnabled, cfg.AdminToken))
			r.Get("/admin/export", admin.Export)
			r.Post("/admin/import", admin.Import)
		})
	})

	return r
}
