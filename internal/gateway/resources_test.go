package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/deepsoal/internal/model"
)

// TestFetchActiveQuestion は質問の取得とキー揺れへの対応をテストする。
// 質問テキストはバックエンドのリビジョンにより text / question_text で返る。
func TestFetchActiveQuestion(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedText string
	}{
		{"question_text key", `{"id": 1, "question_text": "سوال امروز چیست؟"}`, "سوال امروز چیست؟"},
		{"text key", `{"id": 1, "text": "سوال امروز چیست؟"}`, "سوال امروز چیست؟"},
		{"question_text preferred", `{"id": 1, "text": "old", "question_text": "new"}`, "new"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c := newTestClient(ts.URL)
			q, err := c.FetchActiveQuestion(context.Background())
			if err != nil {
				t.Fatalf("FetchActiveQuestion returned error: %v", err)
			}
			if q == nil {
				t.Fatal("expected question, got nil")
			}
			if q.Text != tt.expectedText {
				t.Errorf("expected text %q, got %q", tt.expectedText, q.Text)
			}
		})
	}
}

// TestFetchActiveQuestion_NoActiveQuestion はアクティブな質問なしが
// エラーではなく(nil, nil)となることをテストする。
// 古いリビジョンは200 + {"error": ...}で返すため、これも質問なしとして扱う。
func TestFetchActiveQuestion_NoActiveQuestion(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"error payload", `{"error": "سوالی یافت نشد"}`},
		{"zero id", `{"id": 0}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c := newTestClient(ts.URL)
			q, err := c.FetchActiveQuestion(context.Background())
			if err != nil {
				t.Fatalf("expected no error for missing question, got %v", err)
			}
			if q != nil {
				t.Errorf("expected nil question, got %+v", q)
			}
		})
	}
}

// TestFetchAnswers は回答一覧の取得とJSONマッピングをテストする。
func TestFetchAnswers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/answers/" {
			t.Errorf("expected path /api/answers/, got %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id": 1, "answer_text": "پاسخ اول", "user": {"id": 2, "username": "sara"},
			 "total_likes": 3, "user_has_liked": true, "time_since": "۲ ساعت پیش"}
		]`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	answers, err := c.FetchAnswers(context.Background())
	if err != nil {
		t.Fatalf("FetchAnswers returned error: %v", err)
	}

	if len(answers) != 1 {
		t.Fatalf("expected 1 answer, got %d", len(answers))
	}
	a := answers[0]
	if a.Text != "پاسخ اول" {
		t.Errorf("expected answer text to be mapped, got %q", a.Text)
	}
	if a.User.Username != "sara" {
		t.Errorf("expected username sara, got %q", a.User.Username)
	}
	if a.TotalLikes != 3 || !a.UserHasLiked {
		t.Errorf("expected likes 3 / liked true, got %d / %v", a.TotalLikes, a.UserHasLiked)
	}
}

// TestFetchAllAnswers は全回答一覧に親質問の情報が含まれることをテストする。
func TestFetchAllAnswers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/all-answers/" {
			t.Errorf("expected path /api/all-answers/, got %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id": 1, "answer_text": "الف", "user": {"id": 1, "username": "demo"},
			 "question_id": 7, "question_text": "سوال قدیمی"}
		]`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	answers, err := c.FetchAllAnswers(context.Background())
	if err != nil {
		t.Fatalf("FetchAllAnswers returned error: %v", err)
	}
	if len(answers) != 1 || answers[0].QuestionID != 7 || answers[0].QuestionText != "سوال قدیمی" {
		t.Errorf("expected parent question info to be mapped, got %+v", answers)
	}
}

// TestSearch_TooShort は最小長未満のクエリがリクエストを発行せず
// ローカルで拒否されることをテストする。
func TestSearch_TooShort(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	tests := []string{"", " ", "a", "  ب  "}
	for _, query := range tests {
		_, err := c.Search(context.Background(), query)
		apiErr, ok := model.AsAPIError(err)
		if !ok || apiErr.Code != model.ErrCodeSearchTooShort {
			t.Errorf("Search(%q): expected search too short error, got %v", query, err)
		}
	}

	if requests != 0 {
		t.Errorf("expected no requests for short queries, got %d", requests)
	}
}

// TestSearch_TrimsAndEscapesQuery はクエリがトリムされてから
// URLエンコードされて送信されることをテストする。
func TestSearch_TrimsAndEscapesQuery(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search")
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	if _, err := c.Search(context.Background(), "  زبان گو  "); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if gotQuery != "زبان گو" {
		t.Errorf("expected trimmed query %q, got %q", "زبان گو", gotQuery)
	}
}

// TestFetchProfile はプロフィールのパス解決をテストする。
// userIDが0の場合は自分自身、それ以外は指定ユーザーのパスを使用する。
func TestFetchProfile(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"id": 1, "username": "demo"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)

	if _, err := c.FetchProfile(context.Background(), 0); err != nil {
		t.Fatalf("FetchProfile(0) returned error: %v", err)
	}
	if gotPath != "/api/profile/" {
		t.Errorf("expected own profile path /api/profile/, got %s", gotPath)
	}

	if _, err := c.FetchProfile(context.Background(), 42); err != nil {
		t.Fatalf("FetchProfile(42) returned error: %v", err)
	}
	if gotPath != "/api/profile/42/" {
		t.Errorf("expected profile path /api/profile/42/, got %s", gotPath)
	}
}

// TestLogin はログイン成功時のユーザー返却をテストする。
func TestLogin(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds model.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decoding credentials returned error: %v", err)
		}
		if creds.Username != "demo" || creds.Password != "demo123" {
			t.Errorf("expected credentials demo/demo123, got %s/%s", creds.Username, creds.Password)
		}
		w.Write([]byte(`{"id": 1, "username": "demo", "authenticated": true}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	user, err := c.Login(context.Background(), model.Credentials{Username: "demo", Password: "demo123"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.Username != "demo" || !user.Authenticated {
		t.Errorf("expected authenticated user demo, got %+v", user)
	}
}

// TestLogin_InvalidCredentials はログイン失敗時にサーバーのメッセージが
// そのまま保持されることをテストする。
func TestLogin_InvalidCredentials(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "نام کاربری یا رمز عبور اشتباه است"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	_, err := c.Login(context.Background(), model.Credentials{Username: "demo", Password: "wrong"})

	apiErr, ok := model.AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "نام کاربری یا رمز عبور اشتباه است" {
		t.Errorf("expected server message to be kept, got %q", apiErr.Message)
	}
}

// TestRegister_DoesNotSendPasswordConfirm はパスワード確認フィールドが
// 送信されないことをテストする（ローカル検証専用）。
func TestRegister_DoesNotSendPasswordConfirm(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body returned error: %v", err)
		}
		for key := range body {
			if key != "username" && key != "email" && key != "password" {
				t.Errorf("unexpected key %q in registration body", key)
			}
		}
		w.Write([]byte(`{"id": 1, "username": "demo", "authenticated": true}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	_, err := c.Register(context.Background(), model.Registration{
		Username:        "demo",
		Email:           "demo@example.com",
		Password:        "secret1",
		PasswordConfirm: "secret1",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
}

// TestSubmitAnswer_Empty は空回答がリクエストを発行せず拒否されることをテストする。
func TestSubmitAnswer_Empty(t *testing.T) {
	requests := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	err := c.SubmitAnswer(context.Background(), "   ")

	apiErr, ok := model.AsAPIError(err)
	if !ok || apiErr.Code != model.ErrCodeEmptyAnswer {
		t.Fatalf("expected empty answer error, got %v", err)
	}
	if requests != 0 {
		t.Errorf("expected no requests for empty answer, got %d", requests)
	}
}

// TestSubmitAnswer はトリム済みテキストがanswer_textキーで送信されることをテストする。
func TestSubmitAnswer(t *testing.T) {
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding body returned error: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success": true}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	if err := c.SubmitAnswer(context.Background(), "  پاسخ من  "); err != nil {
		t.Fatalf("SubmitAnswer returned error: %v", err)
	}

	if gotBody["answer_text"] != "پاسخ من" {
		t.Errorf("expected trimmed answer_text, got %q", gotBody["answer_text"])
	}
}

// TestLikeAnswer はいいねがPATCHメソッドと回答IDパスで送信されることをテストする。
func TestLikeAnswer(t *testing.T) {
	var gotMethod, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"success": true, "total_likes": 1}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	if err := c.LikeAnswer(context.Background(), 15); err != nil {
		t.Fatalf("LikeAnswer returned error: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("expected method PATCH, got %s", gotMethod)
	}
	if gotPath != "/api/answers/15/like/" {
		t.Errorf("expected path /api/answers/15/like/, got %s", gotPath)
	}
}

// TestLogout はログアウトがPOSTで送信されることをテストする。
func TestLogout(t *testing.T) {
	var gotMethod, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"success": true}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/api/auth/logout/" {
		t.Errorf("expected POST /api/auth/logout/, got %s %s", gotMethod, gotPath)
	}
}

// TestFetchStats は統計スナップショットのマッピングをテストする。
func TestFetchStats(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total_users": 10, "total_questions": 3, "total_answers": 25,
			"total_likes": 40, "active_users_today": 7}`))
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	stats, err := c.FetchStats(context.Background())
	if err != nil {
		t.Fatalf("FetchStats returned error: %v", err)
	}

	if stats.TotalUsers != 10 || stats.TotalAnswers != 25 || stats.ActiveUsersToday != 7 {
		t.Errorf("expected stats to be mapped, got %+v", stats)
	}
}
