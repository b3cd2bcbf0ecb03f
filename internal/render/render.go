// Package render は状態をビュー記述（端末向けテキスト）へ写像する。
// コアのロジックから描画を分離し、状態遷移をブラウザなしでテスト可能に保つ。
// バックエンド由来のテキストは必ずサニタイズしてから平文化する。
package render

import (
	"fmt"
	"strings"

	"github.com/hitoshi/deepsoal/internal/model"
	"github.com/hitoshi/deepsoal/internal/security"
	"github.com/hitoshi/deepsoal/internal/session"
	"github.com/hitoshi/deepsoal/internal/view"
)

// 固定のUI文言（DeepSoalのUI言語はペルシャ語）
const (
	msgNoActiveQuestion = "در حال حاضر سوال فعالی وجود ندارد."
	msgNoAnswersYet     = "هنوز پاسخی ثبت نشده است. اولین نفر باشید!"
	msgNoSearchResults  = "نتیجه‌ای یافت نشد"
	msgLoginPrompt      = "برای ارسال پاسخ باید وارد شوید"
)

// LinkValidator はプロフィールのウェブサイトリンクの検証を抽象化する。
type LinkValidator interface {
	ValidateLinkURL(rawURL string) error
}

// Renderer は状態から端末向けテキストを生成する。
type Renderer struct {
	sanitizer security.AnswerSanitizerService
	links     LinkValidator
	origin    string // 共有リンクのベースURL
}

// NewRenderer はRendererの新しいインスタンスを生成する。
func NewRenderer(sanitizer security.AnswerSanitizerService, links LinkValidator, origin string) *Renderer {
	return &Renderer{
		sanitizer: sanitizer,
		links:     links,
		origin:    strings.TrimRight(origin, "/"),
	}
}

// BuildShareURL は回答への共有リンクを組み立てる。
// クリップボードへのコピー等の共有手段はUI層（スコープ外）の責務。
func (r *Renderer) BuildShareURL(answerID int) string {
	return fmt.Sprintf("%s/#answer-%d", r.origin, answerID)
}

// Render は現在のビューに応じた描画テキストを返す。
// 同一の状態に対して常に同一の出力を返す。
func (r *Renderer) Render(state view.State, status session.Status, user *model.User) string {
	var b strings.Builder

	r.renderHeader(&b, status, user)

	switch state.CurrentView {
	case model.ViewHome:
		r.renderHome(&b, state)
	case model.ViewSearch:
		r.renderSearch(&b, state)
	case model.ViewProfile:
		r.renderProfile(&b, state)
	case model.ViewAllAnswers:
		r.renderAllAnswers(&b, state)
	}

	return b.String()
}

// renderHeader はセッション状態に応じたヘッダーを描画する。
func (r *Renderer) renderHeader(b *strings.Builder, status session.Status, user *model.User) {
	switch status {
	case session.StatusAuthenticated:
		if user != nil {
			fmt.Fprintf(b, "👋 سلام %s! خوش آمدید\n", r.sanitizer.SanitizeStrict(user.Username))
		}
	case session.StatusUnauthenticated:
		b.WriteString(msgLoginPrompt + "\n")
	}
	b.WriteString("\n")
}

// renderHome はホームビュー（質問＋回答一覧＋統計）を描画する。
func (r *Renderer) renderHome(b *strings.Builder, state view.State) {
	if state.Question != nil {
		b.WriteString("❓ " + FlattenHTML(r.sanitizer.Sanitize(state.Question.Text)) + "\n")
		if state.Question.Category != nil {
			fmt.Fprintf(b, "   [%s]\n", r.sanitizer.SanitizeStrict(state.Question.Category.Name))
		}
	} else {
		b.WriteString(msgNoActiveQuestion + "\n")
	}
	b.WriteString("\n")

	r.renderAnswers(b, state.Answers)

	if state.Stats != nil {
		fmt.Fprintf(b, "\n📊 کاربران: %d | سوالات: %d | پاسخ‌ها: %d | لایک‌ها: %d | فعال امروز: %d\n",
			state.Stats.TotalUsers,
			state.Stats.TotalQuestions,
			state.Stats.TotalAnswers,
			state.Stats.TotalLikes,
			state.Stats.ActiveUsersToday,
		)
	}
}

// renderSearch は検索ビューを描画する。
func (r *Renderer) renderSearch(b *strings.Builder, state view.State) {
	if !state.Searched {
		b.WriteString("🔍 عبارت جستجو را وارد کنید\n")
		return
	}

	fmt.Fprintf(b, "🔍 نتایج جستجو برای: %s\n\n", r.sanitizer.SanitizeStrict(state.SearchQuery))

	if len(state.SearchResults) == 0 {
		b.WriteString(msgNoSearchResults + "\n")
		return
	}
	r.renderAnswers(b, state.SearchResults)
}

// renderProfile はプロフィールビューを描画する。
func (r *Renderer) renderProfile(b *strings.Builder, state view.State) {
	p := state.Profile
	if p == nil {
		return
	}

	fmt.Fprintf(b, "👤 %s\n", r.sanitizer.SanitizeStrict(p.Username))
	if p.Bio != "" {
		b.WriteString(FlattenHTML(r.sanitizer.Sanitize(p.Bio)) + "\n")
	}
	if p.Location != "" {
		fmt.Fprintf(b, "📍 %s\n", r.sanitizer.SanitizeStrict(p.Location))
	}
	// ウェブサイトは自由入力のため、安全なURLのみリンクとして表示する
	if p.Website != "" && r.links.ValidateLinkURL(p.Website) == nil {
		fmt.Fprintf(b, "🔗 %s\n", p.Website)
	}
	fmt.Fprintf(b, "⭐ اعتبار: %d | پاسخ‌ها: %d | لایک‌های دریافتی: %d\n",
		p.Reputation, p.TotalAnswers, p.TotalLikes)
	if p.JoinedAt != "" {
		fmt.Fprintf(b, "📅 عضویت: %s\n", p.JoinedAt)
	}

	if len(p.RecentAnswers) > 0 {
		b.WriteString("\nپاسخ‌های اخیر:\n")
		r.renderAnswers(b, p.RecentAnswers)
	}
}

// renderAllAnswers は全回答ビュー（質問ごとのグループ）を描画する。
func (r *Renderer) renderAllAnswers(b *strings.Builder, state view.State) {
	if len(state.Grouped) == 0 {
		b.WriteString(msgNoAnswersYet + "\n")
		return
	}

	for _, group := range state.Grouped {
		b.WriteString("❓ " + FlattenHTML(r.sanitizer.Sanitize(group.QuestionText)) + "\n")
		r.renderAnswers(b, group.Answers)
		b.WriteString("\n")
	}
}

// renderAnswers は回答一覧を描画する。空の場合はプレースホルダを表示する。
func (r *Renderer) renderAnswers(b *strings.Builder, answers []model.Answer) {
	if len(answers) == 0 {
		b.WriteString(msgNoAnswersYet + "\n")
		return
	}

	for _, answer := range answers {
		liked := ""
		if answer.UserHasLiked {
			liked = " (شما لایک کرده‌اید)"
		}
		when := answer.TimeSince
		if when == "" {
			when = answer.CreatedAt
		}
		fmt.Fprintf(b, "#%d %s — %s\n", answer.ID, r.sanitizer.SanitizeStrict(answer.User.Username), when)
		b.WriteString("   " + FlattenHTML(r.sanitizer.Sanitize(answer.Text)) + "\n")
		fmt.Fprintf(b, "   ❤ %d%s\n", answer.TotalLikes, liked)
	}
}
