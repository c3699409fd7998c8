package electionrouter

import (
	authdomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/domain"
	authhandlers "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/infrastructure/jwt"
	"github.com/go-chi/chi/v5"
)

// Options configures the mounted routes.
type Options struct {
	Limiter        *authhandlers.IPRateLimiter
	AllowedOrigins []string
}

// Mount registers the election routes under /api/elections. Exports under
// /{id}/admin list voters and require an admin token.
func Mount(r chi.Router, h *Handlers, provider authjwt.Provider, opts Options) {
	r.Route("/api/elections", func(r chi.Router) {
		r.Use(authhandlers.CORSMiddleware(opts.AllowedOrigins))
		if opts.Limiter != nil {
			r.Use(authhandlers.RateLimitMiddleware(opts.Limiter))
		}
		r.Use(authhandlers.BearerAuthMiddleware(provider))

		r.Get("/", h.HandleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Get("/export", h.HandleExport)
			r.Get("/export.xlsx", h.HandleExportXLSX)
			r.Get("/tally.png", h.HandleTallyChart)

			r.Group(func(r chi.Router) {
				r.Use(authhandlers.RequireRole(authdomain.RoleAdmin))
				r.Get("/admin/export", h.HandleAdminExport)
				r.Get("/admin/export.xlsx", h.HandleAdminExportXLSX)
			})
		})
	})
}
