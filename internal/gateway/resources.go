package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/deepsoal/internal/model"
)

// FetchActiveQuestion は現在アクティブな質問を取得する。
// アクティブな質問が存在しない場合は(nil, nil)を返す。
// 古いリビジョンのバックエンドは質問なしを200 + {"error": ...}で返すため、
// これも「質問なし」として扱いエラーにしない。
func (c *Client) FetchActiveQuestion(ctx context.Context) (*model.Question, error) {
	var payload struct {
		ID           int             `json:"id"`
		Error        string          `json:"error"`
		Text         string          `json:"text"`
		QuestionText string          `json:"question_text"`
		Category     *model.Category `json:"category"`
		TotalAnswers int             `json:"total_answers"`
	}

	if err := c.doGet(ctx, "active_question", "/api/active-question/", &payload); err != nil {
		return nil, err
	}

	if payload.Error != "" || payload.ID == 0 {
		return nil, nil
	}

	// 質問テキストのキーはリビジョンにより text / question_text の揺れがある
	text := payload.QuestionText
	if text == "" {
		text = payload.Text
	}

	return &model.Question{
		ID:           payload.ID,
		Text:         text,
		Category:     payload.Category,
		TotalAnswers: payload.TotalAnswers,
	}, nil
}

// FetchAnswers はアクティブな質問への回答一覧を取得する。
func (c *Client) FetchAnswers(ctx context.Context) ([]model.Answer, error) {
	var answers []model.Answer
	if err := c.doGet(ctx, "answers", "/api/answers/", &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// FetchAllAnswers は全質問横断の回答一覧を取得する。
// 各回答には親質問のID・テキストが含まれる。
func (c *Client) FetchAllAnswers(ctx context.Context) ([]model.Answer, error) {
	var answers []model.Answer
	if err := c.doGet(ctx, "all_answers", "/api/all-answers/", &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// FetchStats はサイト全体の集計値を取得する。
func (c *Client) FetchStats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.doGet(ctx, "stats", "/api/stats/", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Search はクエリに一致する回答を検索する。
// トリム後のクエリが最小長未満の場合はリクエストを発行せずローカルで拒否する。
// クライアント側レート制限を超えた場合もリクエストを発行しない。
func (c *Client) Search(ctx context.Context, query string) ([]model.Answer, error) {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < c.config.SearchMinLength {
		return nil, model.NewSearchTooShortError(c.config.SearchMinLength)
	}

	if !c.searchLimiter.Allow() {
		return nil, model.NewRateLimitedError()
	}

	var answers []model.Answer
	path := "/api/search/?search=" + url.QueryEscape(trimmed)
	if err := c.doGet(ctx, "search", path, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// FetchProfile は指定ユーザーのプロフィールを取得する。
// userIDが0の場合は現在のユーザー自身のプロフィールを取得する。
func (c *Client) FetchProfile(ctx context.Context, userID int) (*model.Profile, error) {
	path := "/api/profile/"
	if userID > 0 {
		path = fmt.Sprintf("/api/profile/%d/", userID)
	}

	var profile model.Profile
	if err := c.doGet(ctx, "profile", path, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FetchAuthUser は現在のセッション状態を取得する。
// セッションが無効な場合は401由来のAPIErrorを返す。
func (c *Client) FetchAuthUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.doGet(ctx, "auth_user", "/api/auth/user/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login は資格情報でログインし、認証されたユーザーを返す。
// 失敗時のメッセージ（例: invalid credentials）はサーバーの返答をそのまま保持する。
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	var user model.User
	if err := c.doMutate(ctx, "login", http.MethodPost, "/api/auth/login/", creds, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register は新規ユーザーを登録し、認証されたユーザーを返す。
func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	var user model.User
	if err := c.doMutate(ctx, "register", http.MethodPost, "/api/auth/register/", reg, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout は現在のセッションを終了する。
func (c *Client) Logout(ctx context.Context) error {
	return c.doMutate(ctx, "logout", http.MethodPost, "/api/auth/logout/", struct{}{}, nil)
}

// SubmitAnswer はアクティブな質問への回答を投稿する。
// トリム後に空のテキストはリクエストを発行せずローカルで拒否する。
func (c *Client) SubmitAnswer(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.NewEmptyAnswerError()
	}

	body := map[string]string{"answer_text": trimmed}
	return c.doMutate(ctx, "submit_answer", http.MethodPost, "/api/answers/", body, nil)
}

// LikeAnswer は指定回答のいいねをトグルする。
// 配備モードは認証ユーザー方式のため、メソッドはPATCH固定。
func (c *Client) LikeAnswer(ctx context.Context, answerID int) error {
	path := fmt.Sprintf("/api/answers/%d/like/", answerID)
	return c.doMutate(ctx, "like_answer", http.MethodPatch, path, struct{}{}, nil)
}
