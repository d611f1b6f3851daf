package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Inilogicz/Nutri-food/internal/metrics"
	"github.com/Inilogicz/Nutri-food/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	HSTSMaxAge        time.Duration
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           middleware.HTTPStatusRecorder
	MetricsGatherer   prometheus.Gatherer // nilの場合は/metricsを公開しない
	HealthChecker     HealthChecker

	// ドメインサービス
	AuthService         AuthServiceInterface
	CatalogService      CatalogServiceInterface
	WalletService       WalletServiceInterface
	ConsultationService ConsultationServiceInterface
	ProfileService      ProfileServiceInterface
	AssistantService    AssistantServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → (Auth → RateLimit(General))
//
// 登録・ログイン・カタログ・ヘルスチェックは認証不要とする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware(middleware.SecurityHeadersConfig{HSTSMaxAge: deps.HSTSMaxAge}))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	catalogHandler := NewCatalogHandler(deps.CatalogService)
	walletHandler := NewWalletHandler(deps.WalletService)
	sessionHandler := NewSessionHandler(deps.ConsultationService)
	profileHandler := NewProfileHandler(deps.ProfileService)
	assistantHandler := NewAssistantHandler(deps.AssistantService)

	// --- 認証不要のルート ---

	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Post("/user/register", authHandler.Register)
	r.Post("/user/login", authHandler.Login)

	r.Get("/api/meals/recommended", catalogHandler.RecommendedMeal)
	r.Get("/api/dieticians", catalogHandler.Dieticians)
	r.Post("/api/ai/chat", assistantHandler.Chat)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.AuthService))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Post("/user/logout", authHandler.Logout)
		r.Get("/api/user/me", authHandler.Me)

		// 残高
		r.Route("/api/user/balance", func(r chi.Router) {
			r.Get("/", walletHandler.Balance)
			r.Post("/verify", walletHandler.Verify)
			r.Post("/topup", walletHandler.TopUp)
		})

		// 相談セッション
		r.Route("/api/sessions", func(r chi.Router) {
			// POST /api/sessions - セッション開始（開始専用レート制限を追加）
			r.With(deps.RateLimiter.SessionStartMiddleware()).Post("/", sessionHandler.Start)
			r.Get("/active", sessionHandler.Active)
			r.Post("/messages", sessionHandler.SendMessage)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", sessionHandler.Update)
				r.Get("/messages", sessionHandler.Messages)
			})
		})

		// プロフィール
		r.Get("/api/profile", profileHandler.Get)
		r.Put("/api/profile", profileHandler.Update)
	})

	return r
}
