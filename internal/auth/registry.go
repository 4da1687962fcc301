package auth

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

// Resolver определяет пользователя по токену сессии.
type Resolver interface {
	Lookup(ctx context.Context, token string) (*domain.User, error)
}

// Session хранит id браузера и трекер аутентификации.
type Session struct {
	ID      string
	Tracker *Tracker

	mu       sync.Mutex
	token    string
	lastSeen time.Time
}

func NewSession(id string) *Session {
	return &Session{ID: id, Tracker: NewTracker(), lastSeen: time.Now()}
}

// Token возвращает токен, выданный провайдером при входе.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// NewGuestSession возвращает незарегистрированную сессию без пользователя.
func NewGuestSession(id string) *Session {
	sess := NewSession(id)
	sess.Tracker.Resolve(nil)
	return sess
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Registry хранит сессии процесса.
type Registry struct {
	resolver       Resolver
	logger         logger.Logger
	resolveTimeout time.Duration
	maxSessions    int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry создаёт реестр не более чем на maxSessions сессий; при переполнении
// вытесняется самая давно не использованная.
func NewRegistry(resolver Resolver, resolveTimeout time.Duration, maxSessions int, logger logger.Logger) *Registry {
	const (
		defaultResolveTimeout = 10 * time.Second
		defaultMaxSessions    = 100_000
	)

	if resolveTimeout <= 0 {
		resolveTimeout = defaultResolveTimeout
	}
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}

	return &Registry{
		resolver:       resolver,
		logger:         logger,
		resolveTimeout: resolveTimeout,
		maxSessions:    maxSessions,
		sessions:       make(map[string]*Session),
	}
}

// Open возвращает сессию по id. Новая сессия определяет пользователя асинхронно:
// вызывающий должен ждать готовности через Tracker.
func (r *Registry) Open(id string, token string) *Session {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		if len(r.sessions) >= r.maxSessions {
			r.evictOldestLocked()
		}
		sess = NewSession(id)
		sess.token = token
		r.sessions[id] = sess
	}
	r.mu.Unlock()

	sess.touch()
	if !ok {
		if token == "" {
			sess.Tracker.Resolve(nil)
		} else {
			go r.determine(sess, token)
		}
	}

	return sess
}

// Get возвращает существующую сессию.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// LoggedIn возвращает сессии с вошедшим пользователем.
func (r *Registry) LoggedIn() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		if sess.Tracker.LoggedIn() {
			res = append(res, sess)
		}
	}
	return res
}

// Sweep забывает сессии, к которым не обращались дольше maxIdle.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, sess := range r.sessions {
		if sess.idleSince(now) > maxIdle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len возвращает число хранимых сессий.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) evictOldestLocked() {
	now := time.Now()

	var (
		oldestID string
		oldest   time.Duration = -1
	)
	for id, sess := range r.sessions {
		if idle := sess.idleSince(now); idle > oldest {
			oldestID, oldest = id, idle
		}
	}
	if oldest >= 0 {
		delete(r.sessions, oldestID)
		r.logger.Debugf("session registry full, evicted %s", oldestID)
	}
}

func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) determine(sess *Session, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.resolveTimeout)
	defer cancel()

	user, err := r.resolver.Lookup(ctx, token)
	if err != nil {
		r.logger.Warnf("session %s: identity lookup failed, treating as signed out: %v", sess.ID, err)
		user = nil
	}

	sess.Tracker.Resolve(user)
}
