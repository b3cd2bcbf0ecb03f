package render

import (
	"strings"
	"testing"

	"github.com/hitoshi/deepsoal/internal/model"
	"github.com/hitoshi/deepsoal/internal/security"
	"github.com/hitoshi/deepsoal/internal/session"
	"github.com/hitoshi/deepsoal/internal/view"
)

func newTestRenderer() *Renderer {
	return NewRenderer(security.NewAnswerSanitizer(), security.NewURLGuard(), "https://deepsoal.example/")
}

// TestBuildShareURL は共有リンクの組み立てをテストする。
func TestBuildShareURL(t *testing.T) {
	r := newTestRenderer()

	got := r.BuildShareURL(42)
	expected := "https://deepsoal.example/#answer-42"
	if got != expected {
		t.Errorf("expected share URL %q, got %q", expected, got)
	}
}

// TestRender_HomeWithQuestion はホームビューの質問・回答・統計の描画をテストする。
func TestRender_HomeWithQuestion(t *testing.T) {
	r := newTestRenderer()
	state := view.State{
		CurrentView: model.ViewHome,
		Question:    &model.Question{ID: 1, Text: "سوال امروز چیست؟"},
		Answers: []model.Answer{
			{ID: 1, Text: "پاسخ اول", User: model.AnswerUser{Username: "demo"}, TotalLikes: 2},
		},
		Stats: &model.Stats{TotalUsers: 5, TotalAnswers: 10},
	}

	out := r.Render(state, session.StatusAuthenticated, &model.User{Username: "demo"})

	if !strings.Contains(out, "سوال امروز چیست؟") {
		t.Errorf("expected question text in output, got %q", out)
	}
	if !strings.Contains(out, "پاسخ اول") {
		t.Errorf("expected answer text in output, got %q", out)
	}
	if !strings.Contains(out, "demo") {
		t.Errorf("expected username in output, got %q", out)
	}
}

// TestRender_HomeNoQuestion はアクティブな質問なしのプレースホルダをテストする。
func TestRender_HomeNoQuestion(t *testing.T) {
	r := newTestRenderer()
	state := view.State{CurrentView: model.ViewHome}

	out := r.Render(state, session.StatusUnauthenticated, nil)

	if !strings.Contains(out, msgNoActiveQuestion) {
		t.Errorf("expected no-question placeholder, got %q", out)
	}
}

// TestRender_EmptyAnswers は回答0件のプレースホルダをテストする。
func TestRender_EmptyAnswers(t *testing.T) {
	r := newTestRenderer()
	state := view.State{
		CurrentView: model.ViewHome,
		Question:    &model.Question{ID: 1, Text: "سوال"},
	}

	out := r.Render(state, session.StatusUnauthenticated, nil)

	if !strings.Contains(out, msgNoAnswersYet) {
		t.Errorf("expected empty answers placeholder, got %q", out)
	}
}

// TestRender_UnauthenticatedHeader は未認証状態でログイン導線が
// 表示されることをテストする。
func TestRender_UnauthenticatedHeader(t *testing.T) {
	r := newTestRenderer()
	state := view.State{CurrentView: model.ViewHome}

	out := r.Render(state, session.StatusUnauthenticated, nil)

	if !strings.Contains(out, msgLoginPrompt) {
		t.Errorf("expected login prompt in header, got %q", out)
	}
}

// TestRender_SanitizesAnswerText はバックエンド由来のテキストが描画前に
// サニタイズされることをテストする。
func TestRender_SanitizesAnswerText(t *testing.T) {
	r := newTestRenderer()
	state := view.State{
		CurrentView: model.ViewHome,
		Question:    &model.Question{ID: 1, Text: "سوال"},
		Answers: []model.Answer{
			{ID: 1, Text: `پاسخ<script>alert("xss")</script>`, User: model.AnswerUser{Username: "demo"}},
		},
	}

	out := r.Render(state, session.StatusUnauthenticated, nil)

	if strings.Contains(out, "script") || strings.Contains(out, "alert") {
		t.Errorf("expected script to be sanitized, got %q", out)
	}
	if !strings.Contains(out, "پاسخ") {
		t.Errorf("expected answer text to survive, got %q", out)
	}
}

// TestRender_Search は検索ビューの描画をテストする。
func TestRender_Search(t *testing.T) {
	r := newTestRenderer()

	// 未検索: 入力待ちの案内のみ
	state := view.State{CurrentView: model.ViewSearch}
	out := r.Render(state, session.StatusUnauthenticated, nil)
	if strings.Contains(out, msgNoSearchResults) {
		t.Errorf("expected no empty-result message before search, got %q", out)
	}

	// 結果0件: 未検索と区別して「見つからない」を表示
	state.Searched = true
	state.SearchQuery = "یافت‌نشدنی"
	out = r.Render(state, session.StatusUnauthenticated, nil)
	if !strings.Contains(out, msgNoSearchResults) {
		t.Errorf("expected empty-result message, got %q", out)
	}

	// 結果あり
	state.SearchResults = []model.Answer{
		{ID: 1, Text: "نتیجه", User: model.AnswerUser{Username: "demo"}},
	}
	out = r.Render(state, session.StatusUnauthenticated, nil)
	if !strings.Contains(out, "نتیجه") {
		t.Errorf("expected search result in output, got %q", out)
	}
}

// TestRender_ProfileWebsiteLink はプロフィールのウェブサイトが安全なURLの
// 場合のみリンクとして表示されることをテストする。
func TestRender_ProfileWebsiteLink(t *testing.T) {
	r := newTestRenderer()

	tests := []struct {
		name     string
		website  string
		expected bool
	}{
		{"https link", "https://sara.example", true},
		{"javascript scheme", "javascript:alert(1)", false},
		{"relative path", "/profile", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := view.State{
				CurrentView: model.ViewProfile,
				Profile:     &model.Profile{ID: 1, Username: "sara", Website: tt.website},
			}

			out := r.Render(state, session.StatusUnauthenticated, nil)

			if got := strings.Contains(out, tt.website); got != tt.expected {
				t.Errorf("website %q: expected rendered=%v, got %v in %q", tt.website, tt.expected, got, out)
			}
		})
	}
}

// TestRender_AllAnswersGrouped は全回答ビューのグループ描画をテストする。
func TestRender_AllAnswersGrouped(t *testing.T) {
	r := newTestRenderer()
	state := view.State{
		CurrentView: model.ViewAllAnswers,
		Grouped: []model.AnswerGroup{
			{
				QuestionID:   1,
				QuestionText: "سوال اول",
				Answers: []model.Answer{
					{ID: 1, Text: "الف", User: model.AnswerUser{Username: "demo"}},
				},
			},
			{
				QuestionID:   2,
				QuestionText: "سوال دوم",
				Answers: []model.Answer{
					{ID: 2, Text: "ب", User: model.AnswerUser{Username: "sara"}},
				},
			},
		},
	}

	out := r.Render(state, session.StatusUnauthenticated, nil)

	firstIdx := strings.Index(out, "سوال اول")
	secondIdx := strings.Index(out, "سوال دوم")
	if firstIdx < 0 || secondIdx < 0 {
		t.Fatalf("expected both question headers in output, got %q", out)
	}
	if firstIdx > secondIdx {
		t.Error("expected groups to be rendered in order")
	}
}

// TestRender_Deterministic は同一の状態に対して常に同一の出力を
// 返すことをテストする。
func TestRender_Deterministic(t *testing.T) {
	r := newTestRenderer()
	state := view.State{
		CurrentView: model.ViewHome,
		Question:    &model.Question{ID: 1, Text: "سوال"},
		Answers: []model.Answer{
			{ID: 1, Text: "پاسخ", User: model.AnswerUser{Username: "demo"}, TotalLikes: 1},
		},
		Stats: &model.Stats{TotalAnswers: 1},
	}

	first := r.Render(state, session.StatusAuthenticated, &model.User{Username: "demo"})
	second := r.Render(state, session.StatusAuthenticated, &model.User{Username: "demo"})
	if first != second {
		t.Error("expected deterministic rendering for identical state")
	}
}

// TestRender_LikedMarker は自分がいいね済みの回答に印が付くことをテストする。
func TestRender_LikedMarker(t *testing.T) {
	r := newTestRenderer()
	state := view.State{
		CurrentView: model.ViewHome,
		Question:    &model.Question{ID: 1, Text: "سوال"},
		Answers: []model.Answer{
			{ID: 1, Text: "پاسخ", User: model.AnswerUser{Username: "demo"}, TotalLikes: 3, UserHasLiked: true},
		},
	}

	out := r.Render(state, session.StatusAuthenticated, &model.User{Username: "demo"})

	if !strings.Contains(out, "شما لایک کرده‌اید") {
		t.Errorf("expected liked marker in output, got %q", out)
	}
}
