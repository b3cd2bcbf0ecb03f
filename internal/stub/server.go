// Package stub はDeepSoalバックエンドのインメモリ版テストダブルを提供する。
// クライアントが消費する全エンドポイントを、セッションCookie・csrftoken配布・
// PATCHによるいいねトグルを含めて忠実に模倣する。テストとdemoサブコマンドで
// 使用するものであり、製品のサーバーAPIではない。永続化は行わない。
package stub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// sessionCookieName はセッションCookieの名前（Django互換）。
	sessionCookieName = "sessionid"
	// csrfCookieName はアンチフォージェリトークンのCookie名（Django互換）。
	csrfCookieName = "csrftoken"
	// csrfHeaderName はトークン検証に使用するヘッダー名。
	csrfHeaderName = "X-CSRFToken"
)

// user はスタブ内のユーザーを表す。
type user struct {
	ID       int
	Username string
	Email    string
	Password string
	JoinedAt string
}

// answer はスタブ内の回答を表す。
type answer struct {
	ID         int
	QuestionID int
	UserID     int
	Text       string
	CreatedAt  time.Time
	LikedBy    map[int]bool
}

// question はスタブ内の質問を表す。
type question struct {
	ID   int
	Text string
}

// Server はDeepSoalバックエンドのインメモリ実装。
// 全メソッドは並行リクエストに対して安全。
type Server struct {
	logger *slog.Logger
	router chi.Router

	mu         sync.Mutex
	users      []*user
	questions  []*question
	answers    []*answer
	sessions   map[string]int // セッショントークン -> ユーザーID
	activeQID  int
	nextUserID int
	nextAnsID  int
	nextQID    int
}

// NewServer はServerの新しいインスタンスを生成する。
func NewServer(logger *slog.Logger) *Server {
	s := &Server{
		logger:     logger,
		sessions:   make(map[string]int),
		nextUserID: 1,
		nextAnsID:  1,
		nextQID:    1,
	}
	s.router = s.buildRouter()
	return s
}

// Handler はスタブのHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter は全エンドポイントのルーティングを構築する。
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(s.csrfMiddleware)

	r.Get("/api/active-question/", s.handleActiveQuestion)
	r.Get("/api/answers/", s.handleAnswers)
	r.Get("/api/all-answers/", s.handleAllAnswers)
	r.Get("/api/stats/", s.handleStats)
	r.Get("/api/search/", s.handleSearch)
	r.Get("/api/profile/", s.handleOwnProfile)
	r.Get("/api/profile/{id}/", s.handleProfile)
	r.Get("/api/auth/user/", s.handleAuthUser)

	r.Post("/api/auth/login/", s.handleLogin)
	r.Post("/api/auth/register/", s.handleRegister)
	r.Post("/api/auth/logout/", s.handleLogout)
	r.Post("/api/answers/", s.handleSubmitAnswer)
	r.Patch("/api/answers/{id}/like/", s.handleLike)

	return r
}

// --- シード用ヘルパー（テスト・demoモードから使用） ---

// SeedUser はユーザーを登録し、IDを返す。
func (s *Server) SeedUser(username, email, password string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, email, password)
}

// SeedQuestion は質問を追加してアクティブにし、IDを返す。
// 同時にアクティブな質問は最大1つ（後からシードした質問が置き換える）。
func (s *Server) SeedQuestion(text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := &question{ID: s.nextQID, Text: text}
	s.nextQID++
	s.questions = append(s.questions, q)
	s.activeQID = q.ID
	return q.ID
}

// SeedAnswer は指定質問への回答を追加し、IDを返す。
func (s *Server) SeedAnswer(questionID, userID int, text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &answer{
		ID:         s.nextAnsID,
		QuestionID: questionID,
		UserID:     userID,
		Text:       text,
		CreatedAt:  time.Now(),
		LikedBy:    make(map[int]bool),
	}
	s.nextAnsID++
	s.answers = append(s.answers, a)
	return a.ID
}

// ClearActiveQuestion はアクティブな質問をなしにする。
func (s *Server) ClearActiveQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeQID = 0
}

func (s *Server) addUserLocked(username, email, password string) int {
	u := &user{
		ID:       s.nextUserID,
		Username: username,
		Email:    email,
		Password: password,
		JoinedAt: time.Now().Format("2006-01-02"),
	}
	s.nextUserID++
	s.users = append(s.users, u)
	return u.ID
}

// --- ミドルウェア ---

// csrfMiddleware は安全なメソッドでcsrftoken Cookieを配布し、
// 状態変更メソッドでヘッダーのトークンを検証する（Djangoのセッション認証互換）。
func (s *Server) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			if _, err := r.Cookie(csrfCookieName); err != nil {
				http.SetCookie(w, &http.Cookie{
					Name:  csrfCookieName,
					Value: uuid.New().String(),
					Path:  "/",
				})
			}
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(csrfCookieName)
		if err != nil || cookie.Value == "" || r.Header.Get(csrfHeaderName) != cookie.Value {
			s.logger.Warn("CSRFトークンの検証に失敗しました",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "CSRF token missing or incorrect"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// currentUser はリクエストのセッションCookieからユーザーを解決する。
func (s *Server) currentUser(r *http.Request) *user {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[cookie.Value]
	if !ok {
		return nil
	}
	return s.findUserLocked(userID)
}

func (s *Server) findUserLocked(id int) *user {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// --- 読み取り系ハンドラー ---

func (s *Server) handleActiveQuestion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeQID == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"error": "سوالی یافت نشد"})
		return
	}

	for _, q := range s.questions {
		if q.ID == s.activeQID {
			total := 0
			for _, a := range s.answers {
				if a.QuestionID == q.ID {
					total++
				}
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"id":            q.ID,
				"question_text": q.Text,
				"total_answers": total,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"error": "سوالی یافت نشد"})
}

func (s *Server) handleAnswers(w http.ResponseWriter, r *http.Request) {
	viewer := s.currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := []map[string]any{}
	// 新しい回答が先頭（created_at降順）
	for i := len(s.answers) - 1; i >= 0; i-- {
		a := s.answers[i]
		if a.QuestionID != s.activeQID {
			continue
		}
		payload = append(payload, s.answerJSONLocked(a, viewer, false))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleAllAnswers(w http.ResponseWriter, r *http.Request) {
	viewer := s.currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := []map[string]any{}
	for _, a := range s.answers {
		payload = append(payload, s.answerJSONLocked(a, viewer, true))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totalLikes := 0
	for _, a := range s.answers {
		totalLikes += len(a.LikedBy)
	}
	activeUsers := make(map[int]bool)
	for _, userID := range s.sessions {
		activeUsers[userID] = true
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"total_users":        len(s.users),
		"total_questions":    len(s.questions),
		"total_answers":      len(s.answers),
		"total_likes":        totalLikes,
		"active_users_today": len(activeUsers),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("search"))
	viewer := s.currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := []map[string]any{}
	if query == "" {
		writeJSON(w, http.StatusOK, payload)
		return
	}
	lowered := strings.ToLower(query)
	for _, a := range s.answers {
		if strings.Contains(strings.ToLower(a.Text), lowered) {
			payload = append(payload, s.answerJSONLocked(a, viewer, true))
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleOwnProfile(w http.ResponseWriter, r *http.Request) {
	viewer := s.currentUser(r)
	if viewer == nil {
		writeUnauthorized(w)
		return
	}
	s.writeProfile(w, viewer, viewer)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "شناسه کاربر نامعتبر است"})
		return
	}

	s.mu.Lock()
	target := s.findUserLocked(id)
	s.mu.Unlock()

	if target == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "کاربر یافت نشد"})
		return
	}
	s.writeProfile(w, target, s.currentUser(r))
}

// writeProfile はプロフィールJSONを書き込む。
// 集計値（回答数・受け取ったいいね数・評判スコア）は回答データから導出する。
func (s *Server) writeProfile(w http.ResponseWriter, target, viewer *user) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totalAnswers := 0
	totalLikes := 0
	recent := []map[string]any{}
	for i := len(s.answers) - 1; i >= 0; i-- {
		a := s.answers[i]
		if a.UserID != target.ID {
			continue
		}
		totalAnswers++
		totalLikes += len(a.LikedBy)
		if len(recent) < 5 {
			recent = append(recent, s.answerJSONLocked(a, viewer, true))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":             target.ID,
		"username":       target.Username,
		"email":          target.Email,
		"bio":            "",
		"location":       "",
		"website":        "",
		"reputation":     totalLikes*10 + totalAnswers*2,
		"total_answers":  totalAnswers,
		"total_likes":    totalLikes,
		"joined_at":      target.JoinedAt,
		"recent_answers": recent,
	})
}

func (s *Server) handleAuthUser(w http.ResponseWriter, r *http.Request) {
	viewer := s.currentUser(r)
	if viewer == nil {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            viewer.ID,
		"username":      viewer.Username,
		"email":         viewer.Email,
		"authenticated": true,
	})
}

// --- 書き込み系ハンドラー ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "درخواست نامعتبر است"})
		return
	}

	s.mu.Lock()
	var found *user
	for _, u := range s.users {
		if u.Username == creds.Username && u.Password == creds.Password {
			found = u
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "نام کاربری یا رمز عبور اشتباه است"})
		return
	}

	s.issueSession(w, found)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            found.ID,
		"username":      found.Username,
		"email":         found.Email,
		"authenticated": true,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "درخواست نامعتبر است"})
		return
	}

	s.mu.Lock()
	duplicate := false
	for _, u := range s.users {
		if u.Username == reg.Username || u.Email == reg.Email {
			duplicate = true
			break
		}
	}
	var created *user
	if !duplicate {
		id := s.addUserLocked(reg.Username, reg.Email, reg.Password)
		created = s.findUserLocked(id)
	}
	s.mu.Unlock()

	if duplicate {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "خطا در ثبت‌نام - از نام کاربری و ایمیل دیگر استفاده کنید"})
		return
	}

	s.issueSession(w, created)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":            created.ID,
		"username":      created.Username,
		"email":         created.Email,
		"authenticated": true,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}

	// セッションCookieを失効させる
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	viewer := s.currentUser(r)
	if viewer == nil {
		writeUnauthorized(w)
		return
	}

	var body struct {
		AnswerText string `json:"answer_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.AnswerText) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "متن پاسخ نامعتبر است"})
		return
	}

	s.mu.Lock()
	if s.activeQID == 0 {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "سوال فعالی وجود ندارد"})
		return
	}
	a := &answer{
		ID:         s.nextAnsID,
		QuestionID: s.activeQID,
		UserID:     viewer.ID,
		Text:       strings.TrimSpace(body.AnswerText),
		CreatedAt:  time.Now(),
		LikedBy:    make(map[int]bool),
	}
	s.nextAnsID++
	s.answers = append(s.answers, a)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"id": a.ID, "success": true})
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	viewer := s.currentUser(r)
	if viewer == nil {
		writeUnauthorized(w)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "شناسه پاسخ نامعتبر است"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers {
		if a.ID != id {
			continue
		}
		// トグル: 既にいいね済みなら取り消す
		if a.LikedBy[viewer.ID] {
			delete(a.LikedBy, viewer.ID)
		} else {
			a.LikedBy[viewer.ID] = true
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "total_likes": len(a.LikedBy)})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "پاسخ یافت نشد"})
}

// --- 共通ヘルパー ---

// issueSession は新しいセッションを発行し、Cookieを設定する。
func (s *Server) issueSession(w http.ResponseWriter, u *user) {
	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = u.ID
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
}

// answerJSONLocked は回答のJSON表現を構築する。呼び出し元がロックを保持していること。
// withQuestionがtrueの場合は親質問のID・テキストを含める（all-answers・検索用）。
func (s *Server) answerJSONLocked(a *answer, viewer *user, withQuestion bool) map[string]any {
	author := s.findUserLocked(a.UserID)
	username := "ناشناس"
	authorID := 0
	if author != nil {
		username = author.Username
		authorID = author.ID
	}

	liked := false
	if viewer != nil {
		liked = a.LikedBy[viewer.ID]
	}

	payload := map[string]any{
		"id":          a.ID,
		"answer_text": a.Text,
		"user": map[string]any{
			"id":       authorID,
			"username": username,
		},
		"created_at":     a.CreatedAt.Format("2006-01-02 15:04"),
		"total_likes":    len(a.LikedBy),
		"user_has_liked": liked,
	}
	if withQuestion {
		payload["question_id"] = a.QuestionID
		for _, q := range s.questions {
			if q.ID == a.QuestionID {
				payload["question_text"] = q.Text
				break
			}
		}
	}
	return payload
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "لطفا دوباره وارد شوید"})
}
