// Package model はドメインモデルを定義する。
package model

// AnswerUser は回答に紐づく投稿者を表す。
// 認証ユーザーモードのバックエンドが返す形式。
type AnswerUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Answer はアクティブな質問への回答を表す。
// いいね数はLikeAnswerで変化するが、ローカルでは書き換えず再取得で反映する。
type Answer struct {
	ID           int        `json:"id"`
	Text         string     `json:"answer_text"`
	User         AnswerUser `json:"user"`
	CreatedAt    string     `json:"created_at"`
	TimeSince    string     `json:"time_since,omitempty"`
	TotalLikes   int        `json:"total_likes"`
	UserHasLiked bool       `json:"user_has_liked"`

	// 全回答ビュー（/api/all-answers/）でのみ設定される親質問の情報。
	QuestionID   int    `json:"question_id,omitempty"`
	QuestionText string `json:"question_text,omitempty"`
}

// AnswerGroup は質問ごとにまとめた回答の集合を表す。
// 全回答ビューのグルーピング結果として使用する。
type AnswerGroup struct {
	QuestionID   int
	QuestionText string
	Answers      []Answer
}
