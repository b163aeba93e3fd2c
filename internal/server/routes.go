package server

import (
	"net/http"

	"github.com/readhabit/readhabit-web/internal/handlers"
	"github.com/readhabit/readhabit-web/internal/middleware"
)

func (s *Server) setupRoutes() (http.Handler, error) {
	mux := http.NewServeMux()

	guard := middleware.NewSessionGuard(s.store, s.logger)
	originCheck, err := middleware.NewOriginCheck(s.cfg.Server.BaseURL, s.logger)
	if err != nil {
		return nil, err
	}

	pageHandler, err := handlers.NewPageHandler(s.cfg.UI, s.cfg.IdP.IdentityProviders, s.store, s.deps.Backend, s.logger)
	if err != nil {
		return nil, err
	}

	authorizeHandler := handlers.NewAuthorizeHandler(s.deps.CodeFlow, s.store, s.cfg.IdP.IdentityProviders, s.logger)
	callbackHandler := handlers.NewCallbackHandler(s.deps.CodeFlow, s.store, s.replay, s.logger)
	otpHandler := handlers.NewOTPHandler(s.deps.OTPFlow, s.store, s.replay, s.logger)
	sessionHandler := handlers.NewSessionHandler(s.store, s.deps.Claims, s.logger)
	logoutHandler := handlers.NewLogoutHandler(s.store, s.logger)
	apiHandler := handlers.NewAPIHandler(s.deps.Backend, s.store, s.logger)
	healthHandler := handlers.NewHealthHandler(s.cfg, s.deps.Cache, s.deps.Backend, s.logger)

	mux.HandleFunc("GET /{$}", pageHandler.Landing)
	mux.HandleFunc("GET /login", pageHandler.Login)
	mux.Handle("GET /feed", guard.RequireSession(http.HandlerFunc(pageHandler.Feed)))
	mux.Handle("GET /group/{id}", guard.RequireSession(http.HandlerFunc(pageHandler.Group)))

	mux.Handle("GET /api/auth/{provider}", authorizeHandler)
	mux.Handle("GET /auth/callback", callbackHandler)
	mux.Handle("POST /api/auth/otp/start", originCheck.Validate(http.HandlerFunc(otpHandler.Start)))
	mux.Handle("POST /api/auth/otp/verify", originCheck.Validate(http.HandlerFunc(otpHandler.Verify)))
	mux.Handle("GET /api/auth/session", sessionHandler)
	mux.Handle("POST /api/auth/logout", originCheck.Validate(logoutHandler))

	mux.HandleFunc("GET /api/me", apiHandler.Me)
	mux.HandleFunc("GET /api/reading/progress", apiHandler.Progress)
	mux.Handle("PUT /api/reading/goal", originCheck.Validate(http.HandlerFunc(apiHandler.SetGoal)))
	mux.Handle("POST /api/reading", originCheck.Validate(http.HandlerFunc(apiHandler.RegisterReading)))

	mux.Handle("GET /health", healthHandler)

	handler := middleware.Recovery(s.logger)(
		middleware.Logging(s.logger)(
			addSecurityHeaders(mux),
		),
	)

	return handler, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
