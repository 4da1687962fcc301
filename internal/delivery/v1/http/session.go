package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/DRSN-tech/storefront/internal/auth"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/google/uuid"
)

// SessionOpener выдаёт сессию по id браузера.
type SessionOpener interface {
	Open(id string, token string) *auth.Session
	Get(id string) (*auth.Session, bool)
}

type sessionCtxKey struct{}

// sessionFromCtx возвращает сессию, положенную SessionMiddleware.
func sessionFromCtx(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*auth.Session)
	return sess
}

// SessionMiddleware привязывает запрос к сессии по cookie и, если есть, bearer токену.
// Читающий запрос без токена и без известной сессии получает гостевую сессию,
// которая не регистрируется.
func SessionMiddleware(sessions SessionOpener, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			token := bearerToken(r)

			var sess *auth.Session
			if _, known := sessions.Get(id); known || token != "" || !readOnly(r) {
				sess = sessions.Open(id, token)
			} else {
				sess = auth.NewGuestSession(id)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey{}, sess)))
		})
	}
}

func readOnly(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "

	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// AdminOnly пропускает только вошедших администраторов.
// Не вошедший получает 401 со ссылкой на вход, вошедший без роли admin получает 403.
func AdminOnly(authUC usecase.AuthUC) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromCtx(r.Context())
			if sess == nil {
				WriteError(w, e.ErrUnauthorized)
				return
			}

			res, err := authUC.RequireAuth(r.Context(), sess, returnTo(r))
			if err != nil {
				WriteError(w, e.Wrap(err.Error(), e.ErrUnauthorized))
				return
			}
			if !res.Allowed {
				WriteLoginRequired(w, e.ErrUnauthorized.Error(), res.LoginURL)
				return
			}
			if !res.User.IsAdmin() {
				WriteError(w, e.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminCtxKey{}, res.User)))
		})
	}
}

type adminCtxKey struct{}

func adminFromCtx(ctx context.Context) *domain.User {
	user, _ := ctx.Value(adminCtxKey{}).(*domain.User)
	return user
}
