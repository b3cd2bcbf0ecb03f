// Package model はドメインモデルを定義する。
package model

// Category は質問のカテゴリを表す。
// バックエンドのリビジョンによっては付与されない場合がある。
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Question はアクティブな質問を表す。
// 取得後はイミュータブルとして扱い、同時にアクティブな質問は最大1つ。
type Question struct {
	ID           int       `json:"id"`
	Text         string    `json:"question_text"`
	Category     *Category `json:"category,omitempty"`
	TotalAnswers int       `json:"total_answers"`
}
