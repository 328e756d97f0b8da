package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/horizon/internal/authform"
	"github.com/hitoshi/horizon/internal/metrics"
	"github.com/hitoshi/horizon/internal/middleware"
)

// MetricsRecorder はルーターが記録するメトリクスの記録先。
type MetricsRecorder interface {
	middleware.StatusObserver
	authform.Recorder
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker HealthChecker
	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter
	CSRFConfig    middleware.CSRFConfig
	Logger        *slog.Logger

	// メトリクス。Gathererがnilの場合は/metricsを公開しない。
	Metrics         MetricsRecorder
	MetricsGatherer prometheus.Gatherer

	Renderer Renderer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ホーム画面
	Composer PageComposer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → SecurityHeaders → Metrics → OptionalSession → Logging → RateLimit(General) → CSRF
//
// /health と /metrics はRecoveryまでのチェーンのみを通る。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(logger))

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.SetupMetricsRoute(deps.MetricsGatherer))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, deps.Metrics, deps.AuthConfig, logger)
	homeHandler := NewHomeHandler(deps.Composer, deps.Renderer, logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSecurityHeadersMiddleware())
		if deps.Metrics != nil {
			r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
		}
		r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewLoggingMiddleware(logger))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Get("/", homeHandler.Show)

		r.Get("/sign-in", authHandler.ShowSignIn)
		r.Get("/sign-up", authHandler.ShowSignUp)
		r.Group(func(r chi.Router) {
			// 認証アクションはIP単位の厳しいレート制限を追加
			r.Use(deps.RateLimiter.AuthMiddleware())
			r.Post("/sign-in", authHandler.SubmitSignIn)
			r.Post("/sign-up", authHandler.SubmitSignUp)
		})
		r.Post("/sign-out", authHandler.Logout)

		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))
		r.With(middleware.NewSessionMiddleware(deps.SessionFinder)).Get("/api/me", authHandler.Me)
	})

	return r
}
