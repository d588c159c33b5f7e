package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/4PPL8/PakGroccrry/internal/auth/service"
	"github.com/4PPL8/PakGroccrry/internal/auth/store"
	"github.com/4PPL8/PakGroccrry/pkg/httpx"
	"github.com/4PPL8/PakGroccrry/pkg/jwtx"
	"github.com/4PPL8/PakGroccrry/pkg/slogx"

	_ "github.com/4PPL8/PakGroccrry/api/authd" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer         *jwtx.Signer
	buildVersion   string
	startTime      time.Time
	logger         *slog.Logger
	resendCooldown time.Duration

	store       *store.Composite
	AuthService *service.AuthService
}

func NewRouter(
	signer *jwtx.Signer,
	buildVersion string,
	resendCooldown time.Duration,
	st *store.Composite,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:            http.NewServeMux(),
		signer:         signer,
		buildVersion:   buildVersion,
		startTime:      time.Now(),
		resendCooldown: resendCooldown,
		store:          st,
		logger:         logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			PakGroccrry Authentication Service API
//	@version		0.1.0
//	@description	Email verification-code authentication for the PakGroccrry storefront.
//	@description	Clients start a flow with /login, confirm it with /verify, and receive
//	@description	a JWT bearer token for session reads.
//
//	@contact.name				PakGroccrry Team
//	@contact.url				https://github.com/4PPL8/PakGroccrry
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService:    r.AuthService,
		Signer:         r.signer,
		ResendCooldown: r.resendCooldown,
	}

	// POST /login - strict rate limit by IP + address to stop address spam
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndAddress(httpx.StrictLimit),
		),
	)

	// POST /verify - moderate rate limit by IP + address. The flow's own
	// attempt cap is the real guard against code guessing.
	r.Mux.Handle("POST /v1/auth/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIPAndAddress(httpx.ModerateLimit),
		),
	)

	// POST /resend - strict rate limit by IP + address (email spam)
	r.Mux.Handle("POST /v1/auth/resend",
		httpx.Chain(http.HandlerFunc(h.HandleResend),
			httpx.RateLimitByIPAndAddress(httpx.StrictLimit),
		),
	)

	// POST /logout - moderate rate limit by IP
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /pending - moderate rate limit, read-only projection
	r.Mux.Handle("GET /v1/auth/pending",
		httpx.Chain(http.HandlerFunc(h.HandlePending),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /session - authenticated read, moderate limit
	r.Mux.Handle("GET /v1/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleSession),
			httpx.AuthnMiddleware(r.signer),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health endpoints - public limit, no auth
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
