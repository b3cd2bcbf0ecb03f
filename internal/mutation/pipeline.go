// Package mutation はユーザー起点の書き込み操作のパイプラインを提供する。
// 各ミューテーションは「ローカル検証 → コントロールの無効化 → ゲートウェイ呼び出し
// → 成功時は再取得、失敗時はメッセージ表示 → コントロールの復帰（必ず実行）」
// という一貫した流れで処理される。リトライは行わない。
package mutation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/deepsoal/internal/metrics"
	"github.com/hitoshi/deepsoal/internal/model"
)

// Gateway はミューテーションに必要なゲートウェイ機能を抽象化する。
type Gateway interface {
	SubmitAnswer(ctx context.Context, text string) error
	LikeAnswer(ctx context.Context, answerID int) error
	Login(ctx context.Context, creds model.Credentials) (*model.User, error)
	Register(ctx context.Context, reg model.Registration) (*model.User, error)
	Logout(ctx context.Context) error
}

// Session はミューテーションが参照・更新するセッション機能を抽象化する。
type Session interface {
	IsAuthenticated() bool
	SetAuthenticated(user *model.User)
	SetUnauthenticated()
	HandleUnauthorized(ctx context.Context)
}

// Refresher はミューテーション成功後の再取得を抽象化する。
// バックエンドが唯一の情報源のため、ローカル状態の差分適用は行わず常に再取得する。
type Refresher interface {
	RefreshHome(ctx context.Context)
}

// Notifier はユーザーへの通知表示を抽象化する。
type Notifier interface {
	Notify(kind, message string)
}

// Config はミューテーションパイプラインの検証設定。
type Config struct {
	AnswerMinLength   int
	PasswordMinLength int
}

// Pipeline はミューテーションパイプラインの実装。
// コントロールごとの使用中フラグにより、同一コントロールからの
// 二重送信を呼び出しの継続中だけ拒否する（楽観的UI無効化に相当）。
// 異なるコントロール同士の並行実行は妨げない。
type Pipeline struct {
	gateway  Gateway
	session  Session
	refresh  Refresher
	notifier Notifier
	logger   *slog.Logger
	metrics  metrics.MetricsCollector
	config   Config

	mu   sync.Mutex
	busy map[string]bool
}

// NewPipeline はPipelineの新しいインスタンスを生成する。
func NewPipeline(
	gateway Gateway,
	sess Session,
	refresh Refresher,
	notifier Notifier,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	config Config,
) *Pipeline {
	if config.AnswerMinLength <= 0 {
		config.AnswerMinLength = 5
	}
	if config.PasswordMinLength <= 0 {
		config.PasswordMinLength = 6
	}
	return &Pipeline{
		gateway:  gateway,
		session:  sess,
		refresh:  refresh,
		notifier: notifier,
		logger:   logger,
		metrics:  collector,
		config:   config,
	}
}

// SubmitAnswer は回答を投稿する。
// ローカル検証に失敗した場合はネットワーク呼び出しを行わずエラーを返す。
// 成功時は回答一覧・質問・統計を再取得する。
func (p *Pipeline) SubmitAnswer(ctx context.Context, text string) error {
	if err := ValidateAnswer(text, p.config.AnswerMinLength); err != nil {
		p.surfaceError(err)
		return err
	}

	release, err := p.acquire("submit-answer")
	if err != nil {
		return err
	}
	defer release()

	err = p.gateway.SubmitAnswer(ctx, text)
	p.metrics.RecordMutation("submit_answer", err == nil)

	if err != nil {
		if model.IsUnauthorized(err) {
			p.notifier.Notify("error", "برای ارسال پاسخ باید وارد شوید")
			p.session.HandleUnauthorized(ctx)
			return err
		}
		p.surfaceError(err)
		return err
	}

	p.notifier.Notify("success", "پاسخ شما با موفقیت ثبت شد!")
	p.refresh.RefreshHome(ctx)
	return nil
}

// LikeAnswer は回答へのいいねをトグルする。
// 未認証の場合はネットワーク呼び出しを行わず、直ちに未認証UIを表示する。
// 成功時は回答一覧・統計を再取得する（いいね数はローカルで加算しない）。
func (p *Pipeline) LikeAnswer(ctx context.Context, answerID int) error {
	if !p.session.IsAuthenticated() {
		p.notifier.Notify("error", "برای لایک کردن باید وارد شوید")
		p.session.SetUnauthenticated()
		return model.NewUnauthorizedError()
	}

	release, err := p.acquire(fmt.Sprintf("like-%d", answerID))
	if err != nil {
		return err
	}
	defer release()

	err = p.gateway.LikeAnswer(ctx, answerID)
	p.metrics.RecordMutation("like_answer", err == nil)

	if err != nil {
		if model.IsUnauthorized(err) {
			p.notifier.Notify("error", "لطفا دوباره وارد شوید")
			p.session.HandleUnauthorized(ctx)
			return err
		}
		p.surfaceError(err)
		return err
	}

	p.refresh.RefreshHome(ctx)
	return nil
}

// Login はログインを実行する。
// 成功時は現在のユーザーを設定し、ホームを再取得する。
// 失敗時のセッション状態はUnauthenticatedのまま変更しない。
func (p *Pipeline) Login(ctx context.Context, creds model.Credentials) error {
	if err := ValidateCredentials(creds); err != nil {
		p.surfaceError(err)
		return err
	}

	release, err := p.acquire("login")
	if err != nil {
		return err
	}
	defer release()

	p.notifier.Notify("info", "در حال ورود...")

	user, err := p.gateway.Login(ctx, creds)
	p.metrics.RecordMutation("login", err == nil)

	if err != nil {
		p.surfaceError(err)
		return err
	}

	p.session.SetAuthenticated(user)
	p.notifier.Notify("success", "ورود موفقیت‌آمیز بود!")
	p.refresh.RefreshHome(ctx)
	return nil
}

// Register は新規登録を実行する。
// 成功時は登録されたユーザーで認証済み状態となり、ホームを再取得する。
func (p *Pipeline) Register(ctx context.Context, reg model.Registration) error {
	if err := ValidateRegistration(reg, p.config.PasswordMinLength); err != nil {
		p.surfaceError(err)
		return err
	}

	release, err := p.acquire("register")
	if err != nil {
		return err
	}
	defer release()

	p.notifier.Notify("info", "در حال ثبت‌نام...")

	user, err := p.gateway.Register(ctx, reg)
	p.metrics.RecordMutation("register", err == nil)

	if err != nil {
		p.surfaceError(err)
		return err
	}

	p.session.SetAuthenticated(user)
	p.notifier.Notify("success", "ثبت‌نام موفقیت‌آمیز!")
	p.refresh.RefreshHome(ctx)
	return nil
}

// Logout はログアウトを実行する。
// 成功時はセッションをUnauthenticatedへ遷移させ、ホームを再取得する。
// いいね済み表示などセッション依存の状態を残さないため、再取得は省略しない。
func (p *Pipeline) Logout(ctx context.Context) error {
	release, err := p.acquire("logout")
	if err != nil {
		return err
	}
	defer release()

	p.notifier.Notify("info", "در حال خروج...")

	err = p.gateway.Logout(ctx)
	p.metrics.RecordMutation("logout", err == nil)

	if err != nil {
		p.notifier.Notify("error", "خطا در خروج")
		return err
	}

	p.session.SetUnauthenticated()
	p.notifier.Notify("success", "خروج موفقیت‌آمیز بود")
	p.refresh.RefreshHome(ctx)
	return nil
}

// acquire はコントロールの使用中フラグを立てる。
// 既に使用中の場合は二重送信としてローカルで拒否する。
// 返されたreleaseは成功・失敗を問わず必ず呼ぶこと（deferで復帰を保証する）。
func (p *Pipeline) acquire(control string) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy == nil {
		p.busy = make(map[string]bool)
	}
	if p.busy[control] {
		err := model.NewControlBusyError()
		p.notifier.Notify("info", err.Message)
		return nil, err
	}
	p.busy[control] = true

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.busy, control)
	}, nil
}

// surfaceError はエラーをユーザー向け通知に変換する。
func (p *Pipeline) surfaceError(err error) {
	if apiErr, ok := model.AsAPIError(err); ok {
		p.notifier.Notify("error", apiErr.Message)
		return
	}
	p.logger.Error("ミューテーションが失敗しました", slog.String("error", err.Error()))
	p.notifier.Notify("error", "خطا در ارتباط با سرور")
}
