// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
// MessageとActionはユーザー向けのためペルシャ語（DeepSoalのUI言語）で保持する。
type APIError struct {
	Code       string // エラーコード
	Message    string // エラーメッセージ（ユーザー向け）
	Category   string // カテゴリ: network, auth, validation, server
	Action     string // ユーザー向け対処方法
	HTTPStatus int    // HTTPステータスコード。ネットワーク障害・ローカル検証は0
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeNetworkFailure    = "NETWORK_FAILURE"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeServerError       = "SERVER_ERROR"
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrCodeEmptyAnswer       = "EMPTY_ANSWER"
	ErrCodeAnswerTooShort    = "ANSWER_TOO_SHORT"
	ErrCodeSearchTooShort    = "SEARCH_TOO_SHORT"
	ErrCodePasswordTooShort  = "PASSWORD_TOO_SHORT"
	ErrCodePasswordMismatch  = "PASSWORD_MISMATCH"
	ErrCodeEmptyField        = "EMPTY_FIELD"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeControlBusy       = "CONTROL_BUSY"
)

// NewNetworkFailureError はレスポンスを受信できなかった場合のエラーを生成する。
func NewNetworkFailureError() *APIError {
	return &APIError{
		Code:     ErrCodeNetworkFailure,
		Message:  "خطا در ارتباط با سرور",
		Category: "network",
		Action:   "اتصال اینترنت خود را بررسی کنید و دوباره تلاش کنید.",
	}
}

// NewUnauthorizedError は401受信時のエラーを生成する。
// 呼び出し元はセッション再確認と未認証UIへの遷移を行う。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:       ErrCodeUnauthorized,
		Message:    "لطفا دوباره وارد شوید",
		Category:   "auth",
		Action:     "وارد حساب کاربری خود شوید.",
		HTTPStatus: 401,
	}
}

// NewServerError は5xx受信時のエラーを生成する。
func NewServerError(status int) *APIError {
	return &APIError{
		Code:       ErrCodeServerError,
		Message:    "خطای سرور. لطفا بعدا تلاش کنید",
		Category:   "server",
		Action:     "کمی صبر کنید و دوباره تلاش کنید.",
		HTTPStatus: status,
	}
}

// NewMalformedResponseError はレスポンスボディを解釈できなかった場合のエラーを生成する。
func NewMalformedResponseError(status int) *APIError {
	return &APIError{
		Code:       ErrCodeMalformedResponse,
		Message:    "پاسخ سرور قابل پردازش نیست",
		Category:   "server",
		Action:     "کمی صبر کنید و دوباره تلاش کنید.",
		HTTPStatus: status,
	}
}

// NewRequestFailedError はエラーボディ付き4xx受信時のエラーを生成する。
// サーバーが返したメッセージをそのまま表示する。
func NewRequestFailedError(status int, message string) *APIError {
	return &APIError{
		Code:       "REQUEST_FAILED",
		Message:    message,
		Category:   "validation",
		Action:     "ورودی خود را بررسی کنید و دوباره تلاش کنید.",
		HTTPStatus: status,
	}
}

// NewEmptyAnswerError は空回答のローカル検証エラーを生成する。
func NewEmptyAnswerError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyAnswer,
		Message:  "لطفا پاسخ خود را وارد کنید",
		Category: "validation",
		Action:   "متن پاسخ نمی‌تواند خالی باشد.",
	}
}

// NewAnswerTooShortError は回答最小長未満のローカル検証エラーを生成する。
func NewAnswerTooShortError(min int) *APIError {
	return &APIError{
		Code:     ErrCodeAnswerTooShort,
		Message:  fmt.Sprintf("پاسخ باید حداقل %d حرف باشد", min),
		Category: "validation",
		Action:   "پاسخ کامل‌تری بنویسید.",
	}
}

// NewSearchTooShortError は検索クエリ最小長未満のローカル検証エラーを生成する。
func NewSearchTooShortError(min int) *APIError {
	return &APIError{
		Code:     ErrCodeSearchTooShort,
		Message:  fmt.Sprintf("عبارت جستجو باید حداقل %d حرف باشد", min),
		Category: "validation",
		Action:   "عبارت طولانی‌تری وارد کنید.",
	}
}

// NewPasswordTooShortError はパスワード最小長未満のローカル検証エラーを生成する。
func NewPasswordTooShortError(min int) *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooShort,
		Message:  fmt.Sprintf("رمز عبور باید حداقل %d حرف باشد", min),
		Category: "validation",
		Action:   "رمز عبور طولانی‌تری انتخاب کنید.",
	}
}

// NewPasswordMismatchError はパスワード確認不一致のローカル検証エラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "رمز عبور و تکرار آن یکسان نیستند",
		Category: "validation",
		Action:   "هر دو فیلد رمز عبور را یکسان وارد کنید.",
	}
}

// NewEmptyFieldError は必須フィールド未入力のローカル検証エラーを生成する。
func NewEmptyFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeEmptyField,
		Message:  fmt.Sprintf("فیلد %s نمی‌تواند خالی باشد", field),
		Category: "validation",
		Action:   "همه فیلدهای لازم را پر کنید.",
	}
}

// NewRateLimitedError は検索レート超過のローカルエラーを生成する。
// ネットワークリクエストは発行されない。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "درخواست‌های زیادی ارسال شده است",
		Category: "validation",
		Action:   "کمی صبر کنید و دوباره جستجو کنید.",
	}
}

// NewControlBusyError は同一コントロールの二重送信を拒否するエラーを生成する。
func NewControlBusyError() *APIError {
	return &APIError{
		Code:     ErrCodeControlBusy,
		Message:  "در حال انجام عملیات قبلی...",
		Category: "validation",
		Action:   "تا پایان عملیات جاری صبر کنید.",
	}
}

// AsAPIError はエラーチェーンからAPIErrorを取り出す。
// APIErrorが含まれない場合はnilとfalseを返す。
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized はエラーが401起因かを判定する。
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.HTTPStatus == 401
}
