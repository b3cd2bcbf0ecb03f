// Package session はクライアント側のセッション状態管理を提供する。
// バックエンドのセッションを唯一の情報源とし、Unknown / Authenticated /
// Unauthenticated の3状態の間を遷移するステートマシンを実装する。
// 自動再ログインは行わない。
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/deepsoal/internal/model"
)

// Status はセッションの状態を表す。
type Status string

const (
	// StatusUnknown は初期状態。まだ認証状態を確認していない。
	StatusUnknown Status = "unknown"
	// StatusAuthenticated は有効なセッションが存在する状態。
	StatusAuthenticated Status = "authenticated"
	// StatusUnauthenticated はセッションが存在しないか無効な状態。
	StatusUnauthenticated Status = "unauthenticated"
)

// Observer はセッション状態の遷移通知を受け取る。
// Authenticatedへの遷移時はuserが設定され、それ以外ではnil。
// UI側はこの通知で回答フォームの表示やログイン導線の切り替えを行う。
type Observer func(status Status, user *model.User)

// AuthChecker は認証状態の問い合わせに必要なゲートウェイ機能を抽象化する。
type AuthChecker interface {
	FetchAuthUser(ctx context.Context) (*model.User, error)
}

// Manager はセッションステートマシンの実装。
// 全メソッドは並行呼び出しに対して安全。
type Manager struct {
	gateway AuthChecker
	logger  *slog.Logger

	mu        sync.RWMutex
	status    Status
	user      *model.User
	observers []Observer
}

// NewManager はManagerの新しいインスタンスを生成する。初期状態はUnknown。
func NewManager(gateway AuthChecker, logger *slog.Logger) *Manager {
	return &Manager{
		gateway: gateway,
		logger:  logger,
		status:  StatusUnknown,
	}
}

// Subscribe は状態遷移のオブザーバーを登録する。
func (m *Manager) Subscribe(observer Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, observer)
}

// Status は現在のセッション状態を返す。
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// CurrentUser は認証済みユーザーを返す。未認証の場合はnil。
func (m *Manager) CurrentUser() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// IsAuthenticated は有効なセッションが存在するかを返す。
func (m *Manager) IsAuthenticated() bool {
	return m.Status() == StatusAuthenticated
}

// CheckAuthStatus はバックエンドに現在のセッション状態を問い合わせる。
// 成功してauthenticated=trueならAuthenticatedへ、それ以外（401、
// authenticated=false、ネットワーク障害を含むあらゆる失敗）は
// Unauthenticatedへ遷移する。冪等であり、ミューテーション後の再確認など
// 何度呼んでも安全。遷移後の状態を返す。
func (m *Manager) CheckAuthStatus(ctx context.Context) Status {
	user, err := m.gateway.FetchAuthUser(ctx)

	if err != nil || user == nil || !user.Authenticated {
		if err != nil && !model.IsUnauthorized(err) {
			// 401以外の失敗もUnauthenticated扱いだが、原因は記録しておく
			m.logger.Warn("認証状態の確認に失敗しました",
				slog.String("error", err.Error()),
			)
		}
		m.transition(StatusUnauthenticated, nil)
		return StatusUnauthenticated
	}

	m.transition(StatusAuthenticated, user)
	return StatusAuthenticated
}

// HandleUnauthorized は保護された呼び出しが401を返した際の処理を行う。
// 失敗したアクションは放棄し（再試行しない）、セッション状態を再確認して
// 未認証UIへの遷移をオブザーバーに通知する。
func (m *Manager) HandleUnauthorized(ctx context.Context) {
	m.logger.Info("401を受信したためセッション状態を再確認します")
	m.CheckAuthStatus(ctx)
}

// SetAuthenticated はログイン・登録成功時に認証済み状態を設定する。
func (m *Manager) SetAuthenticated(user *model.User) {
	m.transition(StatusAuthenticated, user)
}

// SetUnauthenticated はログアウト成功時に未認証状態を設定する。
func (m *Manager) SetUnauthenticated() {
	m.transition(StatusUnauthenticated, nil)
}

// transition は状態を更新し、オブザーバーへ通知する。
// 通知はロック外で行う（オブザーバーがManagerを呼び返しても
// デッドロックしないようにするため）。
func (m *Manager) transition(status Status, user *model.User) {
	m.mu.Lock()
	prev := m.status
	m.status = status
	m.user = user
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	if prev != status {
		m.logger.Info("セッション状態が遷移しました",
			slog.String("from", string(prev)),
			slog.String("to", string(status)),
		)
	}

	for _, observer := range observers {
		observer(status, user)
	}
}
