// Package gateway はDeepSoalバックエンドへの全ネットワーク呼び出しをラップする。
// エンドポイントの形を知る唯一の場所であり、成功・失敗を統一フォーマット
// （model.APIError）に正規化する。共有状態は変更しない（呼び出し元が更新する）。
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hitoshi/deepsoal/internal/metrics"
	"github.com/hitoshi/deepsoal/internal/model"
)

const (
	// defaultMaxResponseSize はレスポンスボディ読み取りの上限（1MiB）。
	defaultMaxResponseSize = 1048576
	// userAgent は全リクエストに付与するUser-Agent。
	userAgent = "DeepSoal-Client/1.0"
)

// Config はゲートウェイの設定。
type Config struct {
	BaseURL         string // 末尾スラッシュなしのAPIベースURL
	CSRFCookieName  string // アンチフォージェリトークンのCookie名（既定: csrftoken）
	CSRFHeaderName  string // トークン送信ヘッダー名（既定: X-CSRFToken）
	MaxResponseSize int64
	SearchMinLength int
	SearchRate      rate.Limit // 検索リクエストのクライアント側レート（req/sec）
	SearchBurst     int
}

// Client はDeepSoal APIのクライアント。
// Cookieジャーを介してセッションCookieとcsrftokenを保持する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
	config     Config

	searchLimiter *rate.Limiter
}

// NewClient はClientの新しいインスタンスを生成する。
// 注入されたhttpClientにCookieジャーがない場合は設定する
// （セッションCookieとcsrftokenの保持に必須）。
func NewClient(httpClient *http.Client, logger *slog.Logger, collector metrics.MetricsCollector, config Config) *Client {
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err == nil {
			httpClient.Jar = jar
		}
	}
	if config.MaxResponseSize <= 0 {
		config.MaxResponseSize = defaultMaxResponseSize
	}
	if config.CSRFCookieName == "" {
		config.CSRFCookieName = "csrftoken"
	}
	if config.CSRFHeaderName == "" {
		config.CSRFHeaderName = "X-CSRFToken"
	}
	if config.SearchMinLength <= 0 {
		config.SearchMinLength = 2
	}
	if config.SearchRate <= 0 {
		config.SearchRate = rate.Limit(30.0 / 60.0)
	}
	if config.SearchBurst <= 0 {
		config.SearchBurst = 5
	}

	return &Client{
		httpClient:    httpClient,
		logger:        logger,
		metrics:       collector,
		config:        config,
		searchLimiter: rate.NewLimiter(config.SearchRate, config.SearchBurst),
	}
}

// doGet はGETリクエストを実行し、レスポンスをoutにデコードする。
// endpointはメトリクス・ログ用の論理名。
func (c *Client) doGet(ctx context.Context, endpoint, path string, out any) error {
	return c.do(ctx, endpoint, http.MethodGet, path, nil, out)
}

// doMutate は状態変更リクエストを実行する。
// CookieジャーからcsrftokenをX-CSRFTokenヘッダーとして添付し、
// JSONボディにはContent-Type: application/jsonを設定する。
func (c *Client) doMutate(ctx context.Context, endpoint, method, path string, body any, out any) error {
	return c.do(ctx, endpoint, method, path, body, out)
}

// do はHTTPリクエストを1回実行し、結果をmodel.APIErrorに正規化する。
// リトライは行わない。タイムアウトは注入されたhttpClientの設定に従う。
func (c *Client) do(ctx context.Context, endpoint, method, path string, body any, out any) error {
	requestID := uuid.New().String()

	// リクエストボディ構築
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// 状態変更メソッドにはアンチフォージェリトークンを添付する。
	// トークンはバックエンドがCookieで配布したものをそのまま渡すだけで、
	// このクライアントが生成・検証することはない。
	if method != http.MethodGet && method != http.MethodHead {
		if token := c.csrfToken(); token != "" {
			req.Header.Set(c.config.CSRFHeaderName, token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordRequestLatency(endpoint, time.Since(start))

	if err != nil {
		// レスポンス未受信: ネットワーク障害としてアプリケーションエラーと区別する
		c.metrics.RecordNetworkFailure(endpoint)
		c.logger.Error("APIリクエストが失敗しました",
			slog.String("request_id", requestID),
			slog.String("endpoint", endpoint),
			slog.String("method", method),
			slog.String("error", err.Error()),
		)
		return model.NewNetworkFailureError()
	}
	defer resp.Body.Close()

	c.metrics.RecordRequest(endpoint, resp.StatusCode)
	c.logger.Debug("APIリクエスト完了",
		slog.String("request_id", requestID),
		slog.String("endpoint", endpoint),
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
	)

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseSize))
	if err != nil {
		return model.NewNetworkFailureError()
	}

	if apiErr := c.normalizeStatus(endpoint, requestID, resp.StatusCode, data); apiErr != nil {
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Error("レスポンスJSONのパースに失敗しました",
			slog.String("request_id", requestID),
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return model.NewMalformedResponseError(resp.StatusCode)
	}

	return nil
}

// normalizeStatus はHTTPステータスをmodel.APIErrorに正規化する。
// 2xxはnilを返す。401は認可エラー、その他4xxはボディのメッセージを
// そのまま表示対象とし、5xxはサーバーエラーとして扱う。
func (c *Client) normalizeStatus(endpoint, requestID string, status int, body []byte) *model.APIError {
	switch {
	case status >= 200 && status < 300:
		return nil

	case status == http.StatusUnauthorized:
		c.logger.Warn("認可エラーを受信しました",
			slog.String("request_id", requestID),
			slog.String("endpoint", endpoint),
		)
		return model.NewUnauthorizedError()

	case status >= 400 && status < 500:
		if msg := extractErrorMessage(body); msg != "" {
			return model.NewRequestFailedError(status, msg)
		}
		return model.NewMalformedResponseError(status)

	default:
		c.logger.Error("サーバーエラーを受信しました",
			slog.String("request_id", requestID),
			slog.String("endpoint", endpoint),
			slog.Int("status", status),
		)
		return model.NewServerError(status)
	}
}

// extractErrorMessage はエラーボディからユーザー向けメッセージを抽出する。
// バックエンドのリビジョンにより error / message / detail のいずれかのキーで返る。
func extractErrorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	switch {
	case payload.Error != "":
		return payload.Error
	case payload.Message != "":
		return payload.Message
	case payload.Detail != "":
		return payload.Detail
	}
	return ""
}

// csrfToken はCookieジャーからアンチフォージェリトークンを読み取る。
// トークンが未配布の場合は空文字列を返す（GETを1度も行っていない場合など）。
func (c *Client) csrfToken() string {
	if c.httpClient.Jar == nil {
		return ""
	}
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return ""
	}
	for _, cookie := range c.httpClient.Jar.Cookies(base) {
		if cookie.Name == c.config.CSRFCookieName {
			return cookie.Value
		}
	}
	return ""
}
