// Package security はクライアント側のセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// URLGuardService は外部URLアクセスの安全性検証機能のインターフェースを定義する。
// APIベースURLの検証とプロフィールのウェブサイトリンクの検証に使用される。
type URLGuardService interface {
	// NewSafeClient は危険な宛先へのアクセスを遮断するHTTPクライアントを生成する。
	// safeurlライブラリにより、プライベートIP、ループバック、リンクローカル、
	// メタデータIPへのリクエストが自動的にブロックされる。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateLinkURL はリンクとして表示するURLの安全性を静的に検証する。
	// http/https以外のスキーム（javascript:等）と空ホストを拒否する。
	ValidateLinkURL(rawURL string) error
}

// allowedSchemes はリンクとして許可されるURLスキーム。
var allowedSchemes = []string{"http", "https"}

// urlGuard はURLGuardServiceの実装。
type urlGuard struct{}

// NewURLGuard はURLGuardServiceの新しいインスタンスを生成する。
func NewURLGuard() *urlGuard {
	return &urlGuard{}
}

// NewSafeClient は危険な宛先へのアクセスを遮断するHTTPクライアントを生成する。
// safeurlはnet.DialerのControlフックでDNS解決後のIPアドレスを検証するため、
// DNS再バインディング攻撃にも対応している。
// 開発時にローカルのスタブバックエンドへ接続する場合はこのクライアントではなく
// 素のhttp.Clientを注入する。
func (g *urlGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	wrappedClient := safeurl.Client(config)
	return wrappedClient.Client
}

// ValidateLinkURL はリンクとして表示するURLの安全性を静的に検証する。
// プロフィールのwebsiteフィールドはバックエンド由来の自由入力であり、
// javascript:スキーム等を描画対象にしないための事前チェックとして使用する。
func (g *urlGuard) ValidateLinkURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes)
	}

	if parsed.Hostname() == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	return nil
}

// isAllowedScheme はURLスキームが許可リストに含まれるかを検証する。
func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}
