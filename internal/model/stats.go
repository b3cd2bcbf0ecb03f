// Package model はドメインモデルを定義する。
package model

// Stats はサイト全体の集計値スナップショットを表す。
// 読み取り専用で、集計を変えうるミューテーション後に再取得する。
type Stats struct {
	TotalUsers       int `json:"total_users"`
	TotalQuestions   int `json:"total_questions"`
	TotalAnswers     int `json:"total_answers"`
	TotalLikes       int `json:"total_likes"`
	ActiveUsersToday int `json:"active_users_today"`
}
