package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/jimlawless/whereami"
)

// Client ходит в REST API Identity Toolkit (email/пароль).
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  logger.Logger
}

func NewClient(cfg *cfg.IdentityCfg, logger logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type credentialsReq struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type updateReq struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type lookupReq struct {
	IDToken string `json:"idToken"`
}

type accountRes struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type lookupRes struct {
	Users []accountRes `json:"users"`
}

type errorRes struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*usecase.Identity, error) {
	var res accountRes
	if err := c.call(ctx, "accounts:signInWithPassword", credentialsReq{email, password, true}, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return toIdentity(res, res.IDToken), nil
}

// SignUp создаёт учётную запись и, если задано, сразу проставляет отображаемое имя.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*usecase.Identity, error) {
	var res accountRes
	if err := c.call(ctx, "accounts:signUp", credentialsReq{email, password, true}, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	identity := toIdentity(res, res.IDToken)

	if displayName == "" {
		return identity, nil
	}

	var upd accountRes
	if err := c.call(ctx, "accounts:update", updateReq{res.IDToken, displayName, true}, &upd); err != nil {
		// Учётная запись уже создана, имя хранится и в профиле пользователя.
		c.logger.Warnf("failed to set display name for %s: %v", res.LocalID, err)
		return identity, nil
	}
	identity.DisplayName = displayName
	if upd.IDToken != "" {
		identity.IDToken = upd.IDToken
	}

	return identity, nil
}

// Lookup возвращает учётную запись по ID токену.
func (c *Client) Lookup(ctx context.Context, token string) (*usecase.Identity, error) {
	var res lookupRes
	if err := c.call(ctx, "accounts:lookup", lookupReq{token}, &res); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if len(res.Users) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrInvalidCredentials)
	}

	return toIdentity(res.Users[0], token), nil
}

func (c *Client) call(ctx context.Context, method string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/" + method + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", e.ErrIdentityProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er errorRes
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return fmt.Errorf("%w: HTTP %d", e.ErrIdentityProvider, resp.StatusCode)
		}
		return mapError(er.Error.Message)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", e.ErrIdentityProvider, err)
	}
	return nil
}

// mapError переводит коды ошибок сервиса в доменные ошибки.
// Сообщение может иметь вид "WEAK_PASSWORD : Password should be ...".
func mapError(message string) error {
	code, _, _ := strings.Cut(message, " ")

	switch code {
	case "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "USER_DISABLED", "INVALID_ID_TOKEN", "USER_NOT_FOUND":
		return fmt.Errorf("%w: %s", e.ErrInvalidCredentials, code)
	case "EMAIL_EXISTS":
		return e.ErrEmailExists
	case "WEAK_PASSWORD":
		return e.ErrWeakPassword
	default:
		return fmt.Errorf("%w: %s", e.ErrIdentityProvider, message)
	}
}

func toIdentity(res accountRes, token string) *usecase.Identity {
	return &usecase.Identity{
		UID:         res.LocalID,
		Email:       res.Email,
		DisplayName: res.DisplayName,
		IDToken:     token,
	}
}
