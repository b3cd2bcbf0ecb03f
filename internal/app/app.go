// Package app はアプリケーションの初期化・依存関係のワイヤリング・起動を提供する。
package app

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/deepsoal/internal/config"
	"github.com/hitoshi/deepsoal/internal/gateway"
	"github.com/hitoshi/deepsoal/internal/logger"
	"github.com/hitoshi/deepsoal/internal/metrics"
	"github.com/hitoshi/deepsoal/internal/mutation"
	"github.com/hitoshi/deepsoal/internal/render"
	"github.com/hitoshi/deepsoal/internal/security"
	"github.com/hitoshi/deepsoal/internal/session"
	"github.com/hitoshi/deepsoal/internal/stub"
	"github.com/hitoshi/deepsoal/internal/view"
)

// version はビルド時に -ldflags で上書きされる。
var version = "dev"

// Init はアプリケーションの初期化を行う。
// .envがあれば読み込み、環境変数からConfigを読み込み、構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .env の読み込み（ローカル開発用。存在しなくてもエラーにしない）
	_ = godotenv.Load()

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. ログの初期化
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// version は軽量サブコマンドのため、初期化をスキップする
	if cmd == CommandVersion {
		fmt.Fprintf(os.Stdout, "deepsoal %s\n", version)
		return nil
	}

	// demo は環境変数なしで動くよう、スタブ起動後に設定を組み立てる
	if cmd == CommandDemo {
		return runDemo(w)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting client",
		slog.String("command", string(cmd)),
		slog.String("api_base", cfg.APIBase),
	)

	httpClient := newHTTPClient(cfg)
	core := buildCore(cfg, httpClient, os.Stdout)

	// Prometheusスクレイプ用エンドポイント
	go func() {
		addr := ":" + cfg.MetricsPort
		if err := http.ListenAndServe(addr, metrics.SetupMetricsRoute(core.registry)); err != nil {
			slog.Error("メトリクスサーバーが停止しました", slog.String("error", err.Error()))
		}
	}()

	return core.runLoop(os.Stdin, os.Stdout)
}

// newHTTPClient は設定に応じたHTTPクライアントを生成する。
// httpsのAPIベースにはSSRF防止付きクライアントを使用し、
// ローカル開発用のhttpベースには素のクライアントを使用する。
func newHTTPClient(cfg *config.Config) *http.Client {
	if strings.HasPrefix(cfg.APIBase, "https://") {
		guard := security.NewURLGuard()
		return guard.NewSafeClient(cfg.HTTPTimeout)
	}
	return &http.Client{Timeout: cfg.HTTPTimeout}
}

// core は対話クライアントを構成する依存一式。
type core struct {
	cfg         *config.Config
	sessionMgr  *session.Manager
	coordinator *view.Coordinator
	pipeline    *mutation.Pipeline
	renderer    *render.Renderer
	notifier    *writerNotifier
	registry    *prometheus.Registry
}

// writerNotifier は通知をwriterへ書き出すNotifier実装。
// 通知の見た目（アニメーション等）はスコープ外のため種別プレフィックスのみ付ける。
type writerNotifier struct {
	w io.Writer
}

// Notify は通知を1行で書き出す。
func (n *writerNotifier) Notify(kind, message string) {
	prefix := "ℹ️"
	switch kind {
	case "success":
		prefix = "✅"
	case "error":
		prefix = "❌"
	}
	fmt.Fprintf(n.w, "%s %s\n", prefix, message)
}

// buildCore は全依存関係をワイヤリングする。
func buildCore(cfg *config.Config, httpClient *http.Client, out io.Writer) *core {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. ゲートウェイの初期化
	gw := gateway.NewClient(httpClient, slog.Default(), collector, gateway.Config{
		BaseURL:         cfg.APIBase,
		CSRFCookieName:  cfg.CSRFCookieName,
		CSRFHeaderName:  cfg.CSRFHeaderName,
		MaxResponseSize: cfg.MaxResponseSize,
		SearchMinLength: cfg.SearchMinLength,
		SearchRate:      rate.Limit(float64(cfg.SearchRatePerMin) / 60.0),
		SearchBurst:     cfg.SearchBurst,
	})

	// 3. セッションマネージャとビューコーディネーター
	sessionMgr := session.NewManager(gw, slog.Default())
	coordinator := view.NewCoordinator(gw, sessionMgr, slog.Default())

	// 4. ミューテーションパイプライン
	notifier := &writerNotifier{w: out}
	pipeline := mutation.NewPipeline(gw, sessionMgr, coordinator, notifier, slog.Default(), collector, mutation.Config{
		AnswerMinLength:   cfg.AnswerMinLength,
		PasswordMinLength: cfg.PasswordMinLength,
	})

	// 5. レンダラー
	sanitizer := security.NewAnswerSanitizer()
	renderer := render.NewRenderer(sanitizer, security.NewURLGuard(), cfg.APIBase)

	return &core{
		cfg:         cfg,
		sessionMgr:  sessionMgr,
		coordinator: coordinator,
		pipeline:    pipeline,
		renderer:    renderer,
		notifier:    notifier,
		registry:    registry,
	}
}

// runDemo はインプロセスのスタブバックエンドを起動し、それに接続する
// 対話クライアントを実行する。環境変数の設定は不要。
func runDemo(w io.Writer) error {
	logger.SetupDefault(w, "warn")

	// 1. スタブバックエンドをローカルの空きポートで起動
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen for stub backend: %w", err)
	}

	stubServer := stub.NewServer(slog.Default())
	seedDemoData(stubServer)

	server := &http.Server{
		Handler:      stubServer.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("stub server error", slog.String("error", err.Error()))
		}
	}()
	defer server.Close()

	baseURL := "http://" + listener.Addr().String()
	fmt.Fprintf(os.Stdout, "دمو: بک‌اند آزمایشی روی %s (کاربر demo / رمز demo123)\n\n", baseURL)

	// 2. スタブへ接続するクライアントを構築
	cfg := &config.Config{
		APIBase:           baseURL,
		HTTPTimeout:       10 * time.Second,
		CSRFCookieName:    "csrftoken",
		CSRFHeaderName:    "X-CSRFToken",
		SearchMinLength:   2,
		AnswerMinLength:   5,
		PasswordMinLength: 6,
		SearchRatePerMin:  60,
		SearchBurst:       10,
	}

	core := buildCore(cfg, &http.Client{Timeout: cfg.HTTPTimeout}, os.Stdout)
	return core.runLoop(os.Stdin, os.Stdout)
}

// seedDemoData はデモ用の初期データを投入する。
func seedDemoData(s *stub.Server) {
	questionID := s.SeedQuestion("زبان برنامه‌نویسی مورد علاقه شما چیست؟")
	demoID := s.SeedUser("demo", "demo@example.com", "demo123")
	otherID := s.SeedUser("sara", "sara@example.com", "sara123")
	s.SeedAnswer(questionID, demoID, "گو! ساده و سریع است.")
	s.SeedAnswer(questionID, otherID, "پایتون، به خاطر اکوسیستمش.")
}
