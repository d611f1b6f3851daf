package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/Inilogicz/Nutri-food/internal/assistant"
	"github.com/Inilogicz/Nutri-food/internal/auth"
	"github.com/Inilogicz/Nutri-food/internal/catalog"
	"github.com/Inilogicz/Nutri-food/internal/config"
	"github.com/Inilogicz/Nutri-food/internal/consultation"
	"github.com/Inilogicz/Nutri-food/internal/database"
	"github.com/Inilogicz/Nutri-food/internal/handler"
	"github.com/Inilogicz/Nutri-food/internal/logger"
	"github.com/Inilogicz/Nutri-food/internal/metrics"
	"github.com/Inilogicz/Nutri-food/internal/middleware"
	"github.com/Inilogicz/Nutri-food/internal/profile"
	"github.com/Inilogicz/Nutri-food/internal/repository"
	"github.com/Inilogicz/Nutri-food/internal/security"
	"github.com/Inilogicz/Nutri-food/internal/wallet"
	"github.com/Inilogicz/Nutri-food/internal/worker/cleanup"
	"github.com/Inilogicz/Nutri-food/internal/worker/settle"
)

// cleanupInterval は終了済みセッションのクリーンアップ実行間隔。
const cleanupInterval = 24 * time.Hour

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、LOG_LEVELに従ってJSON構造化ログをセットアップする。
func Init(w io.Writer) (*config.Config, error) {
	// 1. 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, "info")

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再設定
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("log_level", cfg.LogLevel),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL, database.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// newRevoker はトークン失効ストアを構築する。
// REDIS_ADDRが未設定の場合はnilを返し、失効管理は無効になる。
func newRevoker(cfg *config.Config) (auth.Revoker, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis connection established", slog.String("addr", cfg.RedisAddr))
	return auth.NewRedisRevoker(client), func() { client.Close() }, nil
}

// newRegistry はプロセス単位のメトリクスレジストリを生成する。
// Goランタイムとプロセスのメトリクスも併せて登録する。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// services はAPIサーバーとワーカーで共有するドメインサービス群。
type services struct {
	auth         *auth.Service
	wallet       *wallet.Service
	consultation *consultation.Service
	profile      *profile.Service
	catalog      *catalog.Catalog
}

// buildServices はリポジトリとドメインサービスを組み立てる。
func buildServices(db *sql.DB, cfg *config.Config, revoker auth.Revoker, collector *metrics.Collector) *services {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	profileRepo := repository.NewPostgresProfileRepo(db)
	walletRepo := repository.NewPostgresWalletRepo(db)
	sessionRepo := repository.NewPostgresConsultationRepo(db)
	messageRepo := repository.NewPostgresMessageRepo(db)

	// 2. 共通コンポーネント
	sanitizer := security.NewTextSanitizer()
	cat := catalog.New()

	// 3. ドメインサービス
	return &services{
		auth: auth.NewService(
			userRepo,
			auth.NewHasher(cfg.BcryptCost),
			auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenMaxAge),
			revoker,
		),
		wallet:       wallet.NewService(walletRepo, collector),
		consultation: consultation.NewService(sessionRepo, messageRepo, walletRepo, cat, sanitizer, collector),
		profile:      profile.NewService(userRepo, profileRepo, sanitizer),
		catalog:      cat,
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. トークン失効ストア
	revoker, closeRedis, err := newRevoker(cfg)
	if err != nil {
		return err
	}
	defer closeRedis()

	// 3. メトリクスとドメインサービス
	reg := newRegistry()
	collector := metrics.NewCollector(reg)
	svc := buildServices(db, cfg, revoker, collector)

	// 4. ルーターの構築
	// configのレート制限はreq/min単位
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitSessionStart),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		HSTSMaxAge:        cfg.HSTSMaxAge,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,
		MetricsGatherer:   reg,
		HealthChecker:     db,

		AuthService:         svc.auth,
		CatalogService:      svc.catalog,
		WalletService:       svc.wallet,
		ConsultationService: svc.consultation,
		ProfileService:      svc.profile,
		AssistantService:    assistant.NewService(),
	})

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 精算スケジューラと終了済みセッションのクリーンアップを実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	// 2. ドメインサービス（ワーカーはトークンを扱わないため失効ストアは不要）
	reg := newRegistry()
	collector := metrics.NewCollector(reg)
	svc := buildServices(db, cfg, nil, collector)

	scheduler := settle.NewScheduler(svc.consultation, collector, slog.Default())
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default(), collector, cfg.SessionRetentionDays)

	// 3. シグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("settle_interval", cfg.SettleInterval),
		slog.Int("session_retention_days", cfg.SessionRetentionDays),
	)

	// 4. メトリクス公開（スクレイプ用）
	metricsServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           metrics.SetupMetricsRoute(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", slog.String("error", err.Error()))
		}
	}()
	defer metricsServer.Close()

	go cleanupJob.Start(ctx, cleanupInterval)

	// 精算スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.SettleInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
