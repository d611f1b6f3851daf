// Package ctl はNutri-foodの端末クライアント（nutrictl）のサブコマンドを実装する。
// 認証状態はSQLiteファイルに永続化し、コマンド実行のたびに復元する。
package ctl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"

	"github.com/Inilogicz/Nutri-food/internal/client"
	"github.com/Inilogicz/Nutri-food/internal/client/authsession"
	"github.com/Inilogicz/Nutri-food/internal/client/consultation"
	"github.com/Inilogicz/Nutri-food/internal/client/store"
	"github.com/Inilogicz/Nutri-food/internal/config"
	"github.com/Inilogicz/Nutri-food/internal/logger"
)

const usage = `usage: nutrictl <command> [arguments]

account:
  register --name N --email E --password P --confirm-password P [--phone X] [--dob YYYY-MM-DD] [--gender G]
  login --email E --password P
  logout
  whoami

catalog:
  meal [--time morning|afternoon|night]
  dieticians
  chat MESSAGE

wallet:
  balance
  topup AMOUNT

consultation:
  session status
  session start DIETICIAN_ID
  session send MESSAGE
  session end
  session watch

profile:
  profile
  profile update [--name N] [--height CM] [--weight KG] [--conditions a,b] [--allergies a,b]
`

// App は1回のコマンド実行に必要な依存関係をまとめる。
type App struct {
	out    io.Writer
	cfg    *config.ClientConfig
	auth   *authsession.Manager
	api    *client.Client
	engine *consultation.Engine
	now    func() time.Time

	watching atomic.Bool
}

// printNavigator はログアウト後にログイン方法を案内する。
type printNavigator struct {
	out io.Writer
}

func (n printNavigator) ToLogin() {
	fmt.Fprintln(n.out, "signed out. run `nutrictl login` to sign in again.")
}

// Run は環境変数から設定を読み込み、argsのサブコマンドを実行する。
// カレントディレクトリに.envがあれば先に読み込む（既存の環境変数は上書きしない）。
func Run(ctx context.Context, w io.Writer, args []string) error {
	_ = godotenv.Load()

	cfg := config.LoadClient()
	logger.SetupDefault(os.Stderr, cfg.LogLevel)

	st, err := store.OpenSQLite(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("open local state: %w", err)
	}
	defer st.Close()

	app := NewApp(ctx, w, cfg, st, &http.Client{Timeout: cfg.HTTPTimeout})
	defer app.engine.Close()

	return app.Run(ctx, args)
}

// NewApp は認証状態を復元し、APIクライアントと相談エンジンを組み立てる。
func NewApp(ctx context.Context, w io.Writer, cfg *config.ClientConfig, st authsession.Store, httpClient *http.Client) *App {
	log := slog.Default()

	auth := authsession.NewManager(st, printNavigator{out: w}, log)
	auth.Initialize(ctx)

	app := &App{
		out:  w,
		cfg:  cfg,
		auth: auth,
		api:  client.NewClient(httpClient, log, cfg.APIBaseURL, auth),
		now:  time.Now,
	}
	app.engine = consultation.NewEngine(app.api, auth, log, consultation.EngineConfig{
		AccrualInterval: cfg.AccrualInterval,
		OnAccrual:       app.onAccrual,
	})
	auth.OnLogout(app.engine.Close)

	return app
}

// Run はサブコマンドを実行する。
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "meal":
		return a.meal(ctx, rest)
	case "dieticians":
		return a.dieticians(ctx)
	case "chat":
		return a.chat(ctx, rest)
	case "balance":
		return a.balance(ctx)
	case "topup":
		return a.topUp(ctx, rest)
	case "session":
		return a.session(ctx, rest)
	case "profile":
		return a.profile(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return &UsageError{Message: fmt.Sprintf("unknown command %q", cmd)}
	}
}

// UsageError はコマンドライン引数の誤りを表す。
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message + "\n\n" + usage
}
