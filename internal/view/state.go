// Package view はビューの切り替えと、それに伴うデータ取得の調整を提供する。
// グローバル変数ではなく明示的なStateコンテナを所有し、状態遷移は
// ブラウザなしでテストできる純粋な操作として実装する。
package view

import "github.com/hitoshi/deepsoal/internal/model"

// Notice はユーザーに表示する通知を表す。
type Notice struct {
	Kind    string // success, error, info
	Message string
}

// State はUIが描画に必要とする全状態のコンテナ。
// バックエンドが唯一の情報源であり、ミューテーション後は差分適用ではなく
// 再取得でこの状態を丸ごと置き換える。
type State struct {
	CurrentView model.View

	// home
	Question *model.Question
	Answers  []model.Answer
	Stats    *model.Stats

	// all-answers
	Grouped []model.AnswerGroup

	// profile
	Profile *model.Profile

	// search
	SearchQuery   string
	SearchResults []model.Answer
	Searched      bool // クエリ実行済みか（結果0件と未検索を区別する）

	Notices []Notice
}

// clone はStateの浅いコピーを返す。
// スライス・ポインタの中身は取得ごとに置き換えられるため共有しても安全。
func (s *State) clone() State {
	copied := *s
	copied.Notices = make([]Notice, len(s.Notices))
	copy(copied.Notices, s.Notices)
	return copied
}
