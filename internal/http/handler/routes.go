package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// Dependencies are the collaborators the HTTP surface needs.
type Dependencies struct {
	DB        *sql.DB
	Documents service.DocumentService
	Tags      service.TagService
	// Access may be nil or disabled; the vault is then open.
	Access *service.AccessService
	Cookie CookieConfig
	// Gatherer backs /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
	// OpenAPIFile is served at /openapi.yaml when set.
	OpenAPIFile string
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Dependencies) {
	if d.OpenAPIFile != "" {
		app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
			c.Type("yaml")
			return c.SendFile(d.OpenAPIFile)
		})
	}

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	app.Post("/access", Login(d.Access, d.Cookie))
	app.Delete("/access", Logout(d.Cookie))

	gate := middleware.RequireAccess(d.Access, d.Cookie.Name)

	docs := app.Group("/documents", gate)
	docs.Get("/", ListDocuments(d.Documents))
	docs.Post("/", CreateDocument(d.Documents))
	docs.Get("/:id", GetDocument(d.Documents))
	docs.Patch("/:id", UpdateDocument(d.Documents))
	docs.Delete("/:id", DeleteDocument(d.Documents))

	files := app.Group("/files", gate)
	files.Get("/:objectId/url", GetFileURL(d.Documents))
	files.Get("/:objectId", GetFile(d.Documents))

	tags := app.Group("/tags", gate)
	tags.Get("/", ListTags(d.Tags))
	tags.Post("/", CreateTag(d.Tags))
}
