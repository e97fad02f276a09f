package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// AdminClient is the subset of the Firebase Admin auth client the provider
// uses. *auth.Client satisfies it.
type AdminClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
}

// Identity is the verified caller behind a bearer token.
type Identity struct {
	UID   string
	Email string
}

// Session is the result of a password sign-in.
type Session struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	UID          string `json:"uid"`
	Email        string `json:"email"`
	ExpiresIn    int    `json:"expiresIn"`
}

// Provider talks to Firebase Authentication: the Admin SDK for token checks
// and user management, the Identity Toolkit REST API for password flows.
type Provider struct {
	admin  AdminClient
	rest   *resty.Client
	apiKey string
	logger *zap.SugaredLogger
}

func NewProvider(admin AdminClient, baseURL, apiKey string, logger *zap.SugaredLogger) *Provider {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &Provider{admin: admin, rest: c, apiKey: apiKey, logger: logger}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	ExpiresIn    string `json:"expiresIn"`
}

type oobRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email"`
}

type restError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// VerifyToken checks a Firebase ID token and returns its subject.
func (p *Provider) VerifyToken(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, &Error{Code: CodeInvalidIDToken}
	}
	tok, err := p.admin.VerifyIDToken(ctx, token)
	if err != nil {
		return Identity{}, mapAdminError(err, CodeInvalidIDToken)
	}
	email, _ := tok.Claims["email"].(string)
	return Identity{UID: tok.UID, Email: email}, nil
}

// SignIn exchanges an email and password for a session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (Session, error) {
	var out signInResponse
	body := signInRequest{Email: email, Password: password, ReturnSecureToken: true}
	if err := p.post(ctx, "/v1/accounts:signInWithPassword", &body, &out); err != nil {
		return Session{}, err
	}
	expires, _ := strconv.Atoi(out.ExpiresIn)
	return Session{
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		UID:          out.LocalID,
		Email:        out.Email,
		ExpiresIn:    expires,
	}, nil
}

// SendPasswordReset asks the provider to mail a reset link to email.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	body := oobRequest{RequestType: "PASSWORD_RESET", Email: email}
	return p.post(ctx, "/v1/accounts:sendOobCode", &body, nil)
}

// SignUp creates an account. The display name defaults to the local part of
// the email address.
func (p *Provider) SignUp(ctx context.Context, email, password string) (string, error) {
	displayName, _, _ := strings.Cut(email, "@")
	user := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	rec, err := p.admin.CreateUser(ctx, user)
	if err != nil {
		return "", mapAdminError(err, "")
	}
	return rec.UID, nil
}

func (p *Provider) UpdatePassword(ctx context.Context, uid, password string) error {
	_, err := p.admin.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Password(password))
	if err != nil {
		return mapAdminError(err, "")
	}
	return nil
}

func (p *Provider) UpdatePhotoURL(ctx context.Context, uid, url string) error {
	_, err := p.admin.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).PhotoURL(url))
	if err != nil {
		return mapAdminError(err, "")
	}
	return nil
}

func (p *Provider) post(ctx context.Context, path string, body, result any) error {
	var apiErr restError
	req := p.rest.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(body).
		SetError(&apiErr)
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post(path)
	if err != nil {
		p.logger.Errorw("Identity provider request failed", "path", path, "error", err)
		return &Error{Code: CodeProviderUnavailable, Err: err}
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		p.logger.Warnw("Identity provider rejected request",
			"path", path,
			"status", resp.StatusCode(),
			"message", msg,
		)
		return &Error{Code: codeFromMessage(msg), Message: msg}
	}
	return nil
}

func mapAdminError(err error, fallback string) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case auth.IsEmailAlreadyExists(err):
		return &Error{Code: CodeEmailExists, Err: err}
	case auth.IsUserNotFound(err):
		return &Error{Code: CodeUserNotFound, Err: err}
	case auth.IsIDTokenExpired(err):
		return &Error{Code: CodeTokenExpired, Err: err}
	case auth.IsIDTokenInvalid(err):
		return &Error{Code: CodeInvalidIDToken, Err: err}
	case auth.IsUserDisabled(err):
		return &Error{Code: CodeUserDisabled, Err: err}
	}
	if code := scanCode(err.Error()); code != "" {
		return &Error{Code: code, Message: err.Error(), Err: err}
	}
	if fallback != "" {
		return &Error{Code: fallback, Err: err}
	}
	return fmt.Errorf("identity: %w", err)
}
