// Package security はクライアント側のセキュリティ機能を提供する。
//
// AnswerSanitizer はバックエンドから受信した回答テキストをサニタイズする。
// バックエンドのコントラクトはリビジョンごとに揺れがあり、回答テキストに
// HTMLが含まれて返ることがあるため、描画前に許可リストベースで除去する。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// AnswerSanitizerService は回答テキストのサニタイズ機能のインターフェースを定義する。
// 描画直前に使用され、保存は行わない（ローカル永続化は持たない）。
type AnswerSanitizerService interface {
	// Sanitize は回答テキストをサニタイズして安全なテキストを返す。
	// 許可タグ（p, br, strong, em）のみを通過させ、script等は除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// SanitizeStrict は全てのタグを除去しテキストのみを返す。
	// ユーザー名など、マークアップを一切許可しないフィールドに使用する。
	SanitizeStrict(raw string) string
}

// answerSanitizer はAnswerSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type answerSanitizer struct {
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// NewAnswerSanitizer はAnswerSanitizerServiceの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, strong, em（回答本文の最低限の整形のみ）
//   - 禁止タグ: script, iframe, style, a, img および全てのon*イベント属性
func NewAnswerSanitizer() *answerSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em")

	return &answerSanitizer{
		policy: p,
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize は回答テキストをサニタイズして安全なテキストを返す。
func (s *answerSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}

// SanitizeStrict は全てのタグを除去しテキストのみを返す。
func (s *answerSanitizer) SanitizeStrict(raw string) string {
	return s.strict.Sanitize(raw)
}
