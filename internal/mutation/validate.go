package mutation

import (
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/deepsoal/internal/model"
)

// ValidateAnswer は回答テキストをローカルで検証する。
// トリム後に空、または最小長未満の場合はエラーを返す（ネットワーク呼び出し前）。
func ValidateAnswer(text string, minLength int) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return model.NewEmptyAnswerError()
	}
	if utf8.RuneCountInString(trimmed) < minLength {
		return model.NewAnswerTooShortError(minLength)
	}
	return nil
}

// ValidateCredentials はログイン入力をローカルで検証する。
func ValidateCredentials(creds model.Credentials) error {
	if strings.TrimSpace(creds.Username) == "" {
		return model.NewEmptyFieldError("نام کاربری")
	}
	if creds.Password == "" {
		return model.NewEmptyFieldError("رمز عبور")
	}
	return nil
}

// ValidateRegistration は新規登録入力をローカルで検証する。
// パスワード最小長と確認一致のチェックを含む。
func ValidateRegistration(reg model.Registration, minPassword int) error {
	if strings.TrimSpace(reg.Username) == "" {
		return model.NewEmptyFieldError("نام کاربری")
	}
	if strings.TrimSpace(reg.Email) == "" {
		return model.NewEmptyFieldError("ایمیل")
	}
	if utf8.RuneCountInString(reg.Password) < minPassword {
		return model.NewPasswordTooShortError(minPassword)
	}
	if reg.Password != reg.PasswordConfirm {
		return model.NewPasswordMismatchError()
	}
	return nil
}
