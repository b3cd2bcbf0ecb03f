// Package model はドメインモデルを定義する。
package model

// View は相互排他なUIビューの種別を表す。
type View string

const (
	// ViewHome はホームビュー（アクティブな質問＋回答一覧＋統計）。
	ViewHome View = "home"
	// ViewSearch は検索ビュー。明示的なクエリ入力を待つ。
	ViewSearch View = "search"
	// ViewProfile はプロフィールビュー。
	ViewProfile View = "profile"
	// ViewAllAnswers は全質問横断の回答一覧ビュー。
	ViewAllAnswers View = "all-answers"
)

// IsValid はビュー名が定義済みの集合に含まれるかを判定する。
// 未知のビュー名は拒否（無視）対象となる。
func (v View) IsValid() bool {
	switch v {
	case ViewHome, ViewSearch, ViewProfile, ViewAllAnswers:
		return true
	default:
		return false
	}
}
