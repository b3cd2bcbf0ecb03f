// Package model はドメインモデルを定義する。
package model

// User は認証済みユーザーを表す。
// セッションが有効な間だけ存在し、ログアウトまたは401受信でクリアされる。
type User struct {
	ID            int    `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Authenticated bool   `json:"authenticated"`
}

// Profile はユーザーのプロフィールを表す。
// オンデマンドで取得し、現在のビューを超えてキャッシュしない。
type Profile struct {
	ID            int      `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	Bio           string   `json:"bio"`
	Location      string   `json:"location"`
	Website       string   `json:"website"`
	Reputation    int      `json:"reputation"`
	TotalAnswers  int      `json:"total_answers"`
	TotalLikes    int      `json:"total_likes"`
	JoinedAt      string   `json:"joined_at"`
	RecentAnswers []Answer `json:"recent_answers"`
}

// Credentials はログイン資格情報を表す。
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration は新規登録フォームの入力を表す。
// PasswordConfirmはローカル検証のみに使用し、送信しない。
type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"-"`
}
