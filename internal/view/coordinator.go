package view

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/deepsoal/internal/model"
)

// Gateway はビューの描画に必要なデータ取得機能を抽象化する。
type Gateway interface {
	FetchActiveQuestion(ctx context.Context) (*model.Question, error)
	FetchAnswers(ctx context.Context) ([]model.Answer, error)
	FetchAllAnswers(ctx context.Context) ([]model.Answer, error)
	FetchStats(ctx context.Context) (*model.Stats, error)
	Search(ctx context.Context, query string) ([]model.Answer, error)
	FetchProfile(ctx context.Context, userID int) (*model.Profile, error)
}

// UnauthorizedHandler は保護された取得が401を返した際のセッション再確認を抽象化する。
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context)
}

// Coordinator はビューの切り替えとデータ取得の調整を行う。
// 現在のビューを所有し、遷移時に各ビューが必要とする最小限のデータを取得する。
type Coordinator struct {
	gateway Gateway
	authH   UnauthorizedHandler
	logger  *slog.Logger

	mu    sync.Mutex
	state State
}

// NewCoordinator はCoordinatorの新しいインスタンスを生成する。初期ビューはhome。
func NewCoordinator(gateway Gateway, authH UnauthorizedHandler, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		gateway: gateway,
		authH:   authH,
		logger:  logger,
		state:   State{CurrentView: model.ViewHome},
	}
}

// Snapshot は現在の状態のコピーを返す。描画側はこのコピーだけを参照する。
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// DrainNotices は未表示の通知を取り出してクリアする。
func (c *Coordinator) DrainNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	notices := c.state.Notices
	c.state.Notices = nil
	return notices
}

// ShowView は指定されたビューへ遷移し、必要なデータを取得する。
// 未知のビュー名は何もしない（致命的エラーにしない）。
// 既にアクティブなビューを再指定しても安全で、単に再取得・再描画となる。
// 取得の失敗はビュー遷移自体を失敗させず、通知として状態に積まれる。
func (c *Coordinator) ShowView(ctx context.Context, name model.View) {
	if !name.IsValid() {
		c.logger.Warn("未知のビュー名を無視します", slog.String("view", string(name)))
		return
	}

	c.mu.Lock()
	c.state.CurrentView = name
	c.mu.Unlock()

	switch name {
	case model.ViewHome:
		c.RefreshHome(ctx)
	case model.ViewAllAnswers:
		c.refreshAllAnswers(ctx)
	case model.ViewProfile:
		c.ShowProfileOf(ctx, 0)
	case model.ViewSearch:
		// 明示的なクエリ入力を待つ。自動取得はしない。
	}
}

// RefreshHome はホームビューのデータ（質問・回答一覧・統計）を再取得する。
// ミューテーション成功後にも呼ばれる（差分適用はせず常に再取得する）。
func (c *Coordinator) RefreshHome(ctx context.Context) {
	question, err := c.gateway.FetchActiveQuestion(ctx)
	if err != nil {
		c.reportFetchError(ctx, "active_question", err)
	} else {
		c.mu.Lock()
		c.state.Question = question
		c.mu.Unlock()
	}

	answers, err := c.gateway.FetchAnswers(ctx)
	if err != nil {
		c.reportFetchError(ctx, "answers", err)
	} else {
		c.mu.Lock()
		c.state.Answers = answers
		c.mu.Unlock()
	}

	c.RefreshStats(ctx)
}

// RefreshStats は統計スナップショットを再取得する。
func (c *Coordinator) RefreshStats(ctx context.Context) {
	stats, err := c.gateway.FetchStats(ctx)
	if err != nil {
		c.reportFetchError(ctx, "stats", err)
		return
	}
	c.mu.Lock()
	c.state.Stats = stats
	c.mu.Unlock()
}

// refreshAllAnswers は全回答を取得し、質問ごとの安定グルーピングを適用する。
func (c *Coordinator) refreshAllAnswers(ctx context.Context) {
	answers, err := c.gateway.FetchAllAnswers(ctx)
	if err != nil {
		c.reportFetchError(ctx, "all_answers", err)
		return
	}
	grouped := GroupByQuestion(answers)
	c.mu.Lock()
	c.state.Grouped = grouped
	c.mu.Unlock()
}

// ShowProfileOf はプロフィールビューへ遷移し、指定ユーザーのプロフィールを取得する。
// userIDが0の場合は現在のユーザー自身を対象とする。
func (c *Coordinator) ShowProfileOf(ctx context.Context, userID int) {
	c.mu.Lock()
	c.state.CurrentView = model.ViewProfile
	c.mu.Unlock()

	profile, err := c.gateway.FetchProfile(ctx, userID)
	if err != nil {
		c.reportFetchError(ctx, "profile", err)
		return
	}
	c.mu.Lock()
	c.state.Profile = profile
	c.mu.Unlock()
}

// HandleSearch は検索を実行し、結果を状態に反映する。
// 最小長チェックとレート制限はゲートウェイ側で行われ、違反時は
// リクエストが発行されないまま通知になる。
func (c *Coordinator) HandleSearch(ctx context.Context, query string) {
	c.mu.Lock()
	c.state.CurrentView = model.ViewSearch
	c.state.SearchQuery = query
	c.mu.Unlock()

	results, err := c.gateway.Search(ctx, query)
	if err != nil {
		c.reportFetchError(ctx, "search", err)
		return
	}

	c.mu.Lock()
	c.state.SearchResults = results
	c.state.Searched = true
	c.mu.Unlock()
}

// reportFetchError は取得失敗を通知に変換する。
// 401の場合はセッション再確認も行う（認可失敗はメッセージ表示だけでは足りない）。
func (c *Coordinator) reportFetchError(ctx context.Context, endpoint string, err error) {
	c.logger.Warn("ビューのデータ取得に失敗しました",
		slog.String("endpoint", endpoint),
		slog.String("error", err.Error()),
	)

	message := "خطا در ارتباط با سرور"
	if apiErr, ok := model.AsAPIError(err); ok {
		message = apiErr.Message
	}

	c.mu.Lock()
	c.state.Notices = append(c.state.Notices, Notice{Kind: "error", Message: message})
	c.mu.Unlock()

	if model.IsUnauthorized(err) && c.authH != nil {
		c.authH.HandleUnauthorized(ctx)
	}
}
