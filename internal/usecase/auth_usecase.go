package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/internal/auth"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

// AuthUseCase реализует вход, регистрацию и выход, а также ведёт записи сессий
// в хранилище документов.
type AuthUseCase struct {
	idp       IdentityProvider
	store     DocumentStore
	sessions  SessionSource
	loginPath string
	logger    logger.Logger
	now       func() time.Time
}

func NewAuthUC(
	idp IdentityProvider,
	store DocumentStore,
	sessions SessionSource,
	loginPath string,
	logger logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		idp:       idp,
		store:     store,
		sessions:  sessions,
		loginPath: loginPath,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetSessions задаёт источник сессий. Реестр сессий сам зависит от AuthUseCase
// как от Resolver, поэтому связывается после создания.
func (a *AuthUseCase) SetSessions(sessions SessionSource) {
	a.sessions = sessions
}

// Login входит по email и паролю, создаёт запись сессии и обновляет профиль пользователя.
func (a *AuthUseCase) Login(ctx context.Context, sess *auth.Session, email, password string) (*domain.User, error) {
	const op = "AuthUseCase.Login"

	identity, err := a.idp.SignIn(ctx, email, password)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	now := a.now()
	if err := a.writeSession(ctx, identity, now); err != nil {
		return nil, e.Wrap(op, err)
	}

	name := identity.DisplayName
	if name == "" {
		name = localPart(email)
	}

	err = a.store.Set(ctx, domain.CollectionUsers, identity.UID, map[string]any{
		"email":     identity.Email,
		"name":      name,
		"lastLogin": now,
	}, true)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	user := a.loadUser(ctx, identity)

	sess.SetToken(identity.IDToken)
	sess.Tracker.Notify(user)

	return user, nil
}

// Register создаёт учётную запись с ролью client и сразу открывает сессию.
func (a *AuthUseCase) Register(ctx context.Context, sess *auth.Session, email, password, name string) (*domain.User, error) {
	const op = "AuthUseCase.Register"

	identity, err := a.idp.SignUp(ctx, email, password, name)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	now := a.now()
	user := &domain.User{
		UID:       identity.UID,
		Email:     identity.Email,
		Name:      name,
		Role:      domain.RoleClient,
		CreatedAt: &now,
	}

	err = a.store.Set(ctx, domain.CollectionUsers, identity.UID, map[string]any{
		"email":     user.Email,
		"name":      user.Name,
		"role":      user.Role,
		"createdAt": now,
	}, false)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := a.writeSession(ctx, identity, now); err != nil {
		return nil, e.Wrap(op, err)
	}

	sess.SetToken(identity.IDToken)
	sess.Tracker.Notify(user)

	return user, nil
}

// Logout удаляет запись сессии и выходит. Ошибки только логируются.
func (a *AuthUseCase) Logout(ctx context.Context, sess *auth.Session) {
	const op = "AuthUseCase.Logout"

	if user := sess.Tracker.CurrentUser(); user != nil {
		if err := a.store.Delete(ctx, domain.CollectionSessions, user.UID); err != nil {
			a.logger.Errorf(e.Wrap(op, err), "failed to delete session record, uid %s", user.UID)
		}
	}

	sess.SetToken("")
	sess.Tracker.Notify(nil)
}

// RequireAuth дожидается готовности аутентификации и, если пользователь не вошёл,
// возвращает адрес страницы входа.
func (a *AuthUseCase) RequireAuth(ctx context.Context, sess *auth.Session, returnTo string) (*AuthCheckRes, error) {
	const op = "AuthUseCase.RequireAuth"

	if err := sess.Tracker.Wait(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	user := sess.Tracker.CurrentUser()
	if user == nil {
		return &AuthCheckRes{LoginURL: LoginURL(a.loginPath, returnTo)}, nil
	}

	return &AuthCheckRes{Allowed: true, User: user}, nil
}

// Lookup определяет пользователя по токену для реестра сессий.
func (a *AuthUseCase) Lookup(ctx context.Context, token string) (*domain.User, error) {
	const op = "AuthUseCase.Lookup"

	identity, err := a.idp.Lookup(ctx, token)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if identity == nil {
		return nil, nil
	}

	return a.loadUser(ctx, identity), nil
}

// TouchActivity обновляет lastActivity в записи сессии.
func (a *AuthUseCase) TouchActivity(ctx context.Context, uid string) error {
	const op = "AuthUseCase.TouchActivity"

	err := a.store.Update(ctx, domain.CollectionSessions, uid, map[string]any{
		"lastActivity": a.now(),
	})
	if err != nil {
		return e.Wrap(op, err)
	}
	return nil
}

// RunActivityLoop раз в interval обновляет активность вошедших сессий
// и забывает сессии, простаивающие дольше maxIdle. Блокируется до отмены ctx.
func (a *AuthUseCase) RunActivityLoop(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.touchAll(ctx)
			if maxIdle > 0 {
				if n := a.sessions.Sweep(maxIdle); n > 0 {
					a.logger.Debugf("forgot %d idle sessions", n)
				}
			}
		}
	}
}

func (a *AuthUseCase) touchAll(ctx context.Context) {
	for _, sess := range a.sessions.LoggedIn() {
		user := sess.Tracker.CurrentUser()
		if user == nil {
			continue
		}
		if err := a.TouchActivity(ctx, user.UID); err != nil {
			a.logger.Warnf("Activity update failed, uid %s: %v", user.UID, err)
		}
	}
}

func (a *AuthUseCase) writeSession(ctx context.Context, identity *Identity, now time.Time) error {
	return a.store.Set(ctx, domain.CollectionSessions, identity.UID, map[string]any{
		"userId":       identity.UID,
		"email":        identity.Email,
		"loginDate":    now,
		"lastActivity": now,
	}, false)
}

// loadUser дополняет данные провайдера профилем из коллекции users.
// Если профиль недоступен, пользователь строится по данным провайдера.
func (a *AuthUseCase) loadUser(ctx context.Context, identity *Identity) *domain.User {
	const op = "AuthUseCase.loadUser"

	user := &domain.User{
		UID:   identity.UID,
		Email: identity.Email,
		Name:  identity.DisplayName,
	}

	doc, err := a.store.Get(ctx, domain.CollectionUsers, identity.UID)
	if err != nil {
		if !errors.Is(err, e.ErrDocumentNotFound) {
			a.logger.Warnf("user profile unavailable, uid %s: %v", identity.UID, e.Wrap(op, err))
		}
		return user
	}

	var profile domain.User
	if err := doc.Decode("uid", &profile); err != nil {
		a.logger.Warnf("user profile malformed, uid %s: %v", identity.UID, e.Wrap(op, err))
		return user
	}

	if profile.Email == "" {
		profile.Email = user.Email
	}
	if profile.Name == "" {
		profile.Name = user.Name
	}
	return &profile
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
