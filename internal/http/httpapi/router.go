package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"memegen/internal/http/handlers"
	"memegen/internal/infra"
	"memegen/internal/middleware"
)

// Options carries the router settings taken from configuration.
type Options struct {
	AllowedOrigins  []string
	GenerateLimit   int
	GenerateLimitBy time.Duration
	TrustProxy      bool
	Logger          infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/styles", app.Styles)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.GetSession)
			r.Delete("/", app.DeleteSession)
			r.Put("/image", app.UploadImage)
			r.Get("/preview", app.Preview)
			r.Put("/style", app.SetStyle)
			r.Put("/note", app.SetNote)
			r.With(middleware.RateLimit(opts.GenerateLimit, opts.GenerateLimitBy)).Post("/generate", app.Generate)
			r.Get("/result", app.Result)
			r.Get("/events", app.Events)
		})
	})

	return r
}
