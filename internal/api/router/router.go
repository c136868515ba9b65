package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/dispositions"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/extension"
	httpmiddleware "github.com/prashantsingh432/prospect-pulse-searcher/internal/http/middleware"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/lusha"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/prospects"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/realtime"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/rtne"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/users"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	TokenIssuer *auth.TokenIssuer

	ProspectsHandler    *prospects.Handler
	DispositionsHandler *dispositions.Handler
	UsersHandler        *users.Handler
	RTNEHandler         *rtne.Handler
	LushaHandler        *lusha.Handler
	ExtensionHandler    *extension.Handler
	RealtimeStream      *realtime.StreamHandler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// FunctionRateLimit caps requests/sec per IP on the /functions surface.
	// Zero disables the limiter.
	FunctionRateLimit float64
	FunctionRateBurst int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.TokenIssuer != nil {
		r.Use(httpmiddleware.Session(cfg.TokenIssuer))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.RealtimeStream != nil {
			public.Get("/realtime/stream", cfg.RealtimeStream.ServeHTTP)
		}
		if cfg.ExtensionHandler != nil {
			// Login establishes the token; validate/prospects check the
			// bearer header themselves.
			public.Post("/functions/chrome-extension-login", cfg.ExtensionHandler.Login)
			public.Post("/functions/chrome-extension-validate", cfg.ExtensionHandler.Validate)
			public.Post("/functions/chrome-extension-prospects", cfg.ExtensionHandler.Prospects)
		}
	})

	// Edge-function surface. Handlers read the session themselves so
	// unauthenticated calls get the function's own 401 body.
	r.Route("/functions", func(fn chi.Router) {
		if cfg.FunctionRateLimit > 0 {
			fn.Use(httpmiddleware.RateLimit(cfg.FunctionRateLimit, cfg.FunctionRateBurst))
		}
		if cfg.DispositionsHandler != nil {
			fn.Post("/create-disposition", cfg.DispositionsHandler.Create)
		}
		if cfg.RTNEHandler != nil {
			fn.Post("/rtne-lookup", cfg.RTNEHandler.Lookup)
			fn.Post("/rtne-create", cfg.RTNEHandler.Create)
			fn.Post("/rtne-admin-override", cfg.RTNEHandler.AdminOverride)
			fn.Post("/rtne-phone-disposition", cfg.RTNEHandler.PhoneDisposition)
			fn.Post("/rtne-enrich", cfg.RTNEHandler.Enrich)
			fn.Get("/rtne-job", cfg.RTNEHandler.Job)
		}
		if cfg.LushaHandler != nil {
			fn.Post("/lusha-enrich-proxy", cfg.LushaHandler.Proxy)
		}
	})

	// Application API, session required.
	r.Group(func(app chi.Router) {
		app.Use(httpmiddleware.RequireSession)

		if cfg.ProspectsHandler != nil {
			app.Route("/prospects", func(p chi.Router) {
				p.Get("/", cfg.ProspectsHandler.List)
				p.Post("/", cfg.ProspectsHandler.Create)
				p.Post("/search", cfg.ProspectsHandler.Search)
				p.Post("/lookup", cfg.ProspectsHandler.LookupByLinkedIn)
				p.Get("/{prospectID}", cfg.ProspectsHandler.Get)
				p.Put("/{prospectID}", cfg.ProspectsHandler.Update)
				p.Delete("/{prospectID}", cfg.ProspectsHandler.Delete)
				if cfg.DispositionsHandler != nil {
					p.Get("/{prospectID}/dispositions", cfg.DispositionsHandler.History)
				}
			})
		}

		if cfg.UsersHandler != nil {
			app.Route("/admin/users", func(u chi.Router) {
				u.Get("/", cfg.UsersHandler.RequireAdmin(cfg.UsersHandler.ListUsers))
				u.Post("/", cfg.UsersHandler.RequireAdmin(cfg.UsersHandler.CreateUser))
				u.Delete("/{userID}", cfg.UsersHandler.RequireAdmin(cfg.UsersHandler.DeleteUser))
				u.Patch("/{userID}/active", cfg.UsersHandler.RequireAdmin(cfg.UsersHandler.SetUserActive))
			})
		}
	})

	return r
}
