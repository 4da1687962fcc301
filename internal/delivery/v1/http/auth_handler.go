package http

import (
	"net/http"
	"strings"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

type AuthHandler struct {
	authUsecase usecase.AuthUC
	logger      logger.Logger
}

func NewAuthHandler(authUsecase usecase.AuthUC, logger logger.Logger) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase, logger: logger}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type UserResponse struct {
	User    *domain.User `json:"user"`
	IsAdmin bool         `json:"isAdmin"`
}

// login
//
//	@Summary	Вход по email и паролю
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		LoginRequest	true	"Учётные данные"
//	@Success	200		{object}	UserResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	401		{object}	ErrorResponse
//	@Router		/auth/login [post]
func (a *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		WriteError(w, e.ErrMissingFields)
		return
	}

	user, err := a.authUsecase.Login(r.Context(), sessionFromCtx(r.Context()), req.Email, req.Password)
	if err != nil {
		a.logger.Warnf("login failed for %s: %v", req.Email, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &UserResponse{User: user, IsAdmin: user.IsAdmin()})
}

// register
//
//	@Summary	Регистрация клиента
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		RegisterRequest	true	"Данные нового пользователя"
//	@Success	201		{object}	UserResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/auth/register [post]
func (a *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Password == "" {
		WriteError(w, e.ErrMissingFields)
		return
	}

	user, err := a.authUsecase.Register(r.Context(), sessionFromCtx(r.Context()), req.Email, req.Password, req.Name)
	if err != nil {
		a.logger.Warnf("registration failed for %s: %v", req.Email, err)
		WriteError(w, err)
		return
	}

	a.logger.Infof("user %s registered", user.UID)
	WriteSuccess(w, http.StatusCreated, &UserResponse{User: user, IsAdmin: user.IsAdmin()})
}

// logout
//
//	@Summary	Выход
//	@Tags		auth
//	@Success	204
//	@Router		/auth/logout [post]
func (a *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	a.authUsecase.Logout(r.Context(), sessionFromCtx(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// me
//
//	@Summary		Текущий пользователь
//	@Description	Дожидается определения пользователя сессии. Без входа отвечает 401 со ссылкой на вход
//	@Tags			auth
//	@Produce		json
//	@Param			returnTo	query		string	false	"Куда вернуться после входа"
//	@Success		200			{object}	UserResponse
//	@Failure		401			{object}	ErrorResponse
//	@Router			/auth/me [get]
func (a *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	res, err := a.authUsecase.RequireAuth(r.Context(), sessionFromCtx(r.Context()), returnTo(r))
	if err != nil {
		WriteError(w, e.Wrap(err.Error(), e.ErrUnauthorized))
		return
	}
	if !res.Allowed {
		WriteLoginRequired(w, e.ErrUnauthorized.Error(), res.LoginURL)
		return
	}

	WriteSuccess(w, http.StatusOK, &UserResponse{User: res.User, IsAdmin: res.User.IsAdmin()})
}
