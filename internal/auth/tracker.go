// Package auth отслеживает состояние аутентификации сессий браузера.
package auth

import (
	"context"
	"sync"

	"github.com/DRSN-tech/storefront/internal/domain"
)

// State описывает готовность аутентификации.
type State int

const (
	// Провайдер ещё не сообщил состояние.
	Unknown State = iota
	// Первое уведомление получено, дальше состояние читается синхронно.
	Determined
)

func (s State) String() string {
	if s == Determined {
		return "determined"
	}
	return "unknown"
}

// Tracker хранит текущего пользователя сессии и одноразовый сигнал готовности.
type Tracker struct {
	mu    sync.RWMutex
	user  *domain.User
	ready chan struct{}
	once  sync.Once
}

func NewTracker() *Tracker {
	return &Tracker{ready: make(chan struct{})}
}

// Notify принимает очередное состояние от провайдера (nil, если не вошёл).
// Первый вызов переводит трекер в Determined; повторно сигнал не срабатывает.
func (t *Tracker) Notify(user *domain.User) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.user = user
	t.once.Do(func() { close(t.ready) })
}

// Resolve задаёт первоначальное состояние, только если оно ещё не определено.
// Более раннее уведомление (например, вход) не перезаписывается.
func (t *Tracker) Resolve(user *domain.User) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	resolved := false
	t.once.Do(func() {
		t.user = user
		close(t.ready)
		resolved = true
	})
	return resolved
}

// Wait блокируется до перехода в Determined.
func (t *Tracker) Wait(ctx context.Context) error {
	select {
	case <-t.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) State() State {
	select {
	case <-t.ready:
		return Determined
	default:
		return Unknown
	}
}

// CurrentUser возвращает текущего пользователя без ожидания.
func (t *Tracker) CurrentUser() *domain.User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.user
}

// LoggedIn проверяет вход синхронно; корректно только после Wait.
func (t *Tracker) LoggedIn() bool {
	return t.CurrentUser() != nil
}

// LoggedInAsync дожидается готовности и читает актуальное состояние.
func (t *Tracker) LoggedInAsync(ctx context.Context) (bool, error) {
	if err := t.Wait(ctx); err != nil {
		return false, err
	}
	return t.LoggedIn(), nil
}
