package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAdmin struct {
	verifyFn func(ctx context.Context, token string) (*auth.Token, error)
	createFn func(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	updateFn func(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
}

func (f *fakeAdmin) VerifyIDToken(ctx context.Context, token string) (*auth.Token, error) {
	return f.verifyFn(ctx, token)
}

func (f *fakeAdmin) CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error) {
	return f.createFn(ctx, user)
}

func (f *fakeAdmin) UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error) {
	return f.updateFn(ctx, uid, user)
}

func newTestProvider(t *testing.T, admin AdminClient, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewProvider(admin, srv.URL, "web-key", zap.NewNop().Sugar())
}

func TestSignIn(t *testing.T) {
	var gotKey string
	var gotBody map[string]any
	p := newTestProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:signInWithPassword", r.URL.Path)
		gotKey = r.URL.Query().Get("key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"idToken":"tok","refreshToken":"ref","localId":"u1","email":"a@b.co","expiresIn":"3600"}`))
	})

	s, err := p.SignIn(context.Background(), "a@b.co", "secret123")
	require.NoError(t, err)
	assert.Equal(t, Session{IDToken: "tok", RefreshToken: "ref", UID: "u1", Email: "a@b.co", ExpiresIn: 3600}, s)
	assert.Equal(t, "web-key", gotKey)
	assert.Equal(t, "a@b.co", gotBody["email"])
	assert.Equal(t, true, gotBody["returnSecureToken"])
}

func TestSignInRejected(t *testing.T) {
	p := newTestProvider(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`))
	})

	_, err := p.SignIn(context.Background(), "a@b.co", "nope")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidCredentials, Code(err))
	assert.Equal(t, "❌ Invalid email or password.", FriendlyMessage(err))
}

func TestSendPasswordReset(t *testing.T) {
	var gotBody oobRequest
	p := newTestProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:sendOobCode", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"a@b.co"}`))
	})

	require.NoError(t, p.SendPasswordReset(context.Background(), "a@b.co"))
	assert.Equal(t, oobRequest{RequestType: "PASSWORD_RESET", Email: "a@b.co"}, gotBody)
}

func TestSendPasswordResetUnknownEmail(t *testing.T) {
	p := newTestProvider(t, nil, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"EMAIL_NOT_FOUND"}}`))
	})

	err := p.SendPasswordReset(context.Background(), "ghost@b.co")
	assert.Equal(t, CodeEmailNotFound, Code(err))
}

func TestVerifyToken(t *testing.T) {
	admin := &fakeAdmin{
		verifyFn: func(_ context.Context, token string) (*auth.Token, error) {
			if token == "good" {
				return &auth.Token{UID: "u1", Claims: map[string]interface{}{"email": "a@b.co"}}, nil
			}
			return nil, errors.New("boom")
		},
	}
	p := newTestProvider(t, admin, func(http.ResponseWriter, *http.Request) {})

	id, err := p.VerifyToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, Identity{UID: "u1", Email: "a@b.co"}, id)

	_, err = p.VerifyToken(context.Background(), "bad")
	assert.Equal(t, CodeInvalidIDToken, Code(err))

	_, err = p.VerifyToken(context.Background(), "")
	assert.Equal(t, CodeInvalidIDToken, Code(err))
}

func TestSignUpUsesEmailLocalPart(t *testing.T) {
	var created *auth.UserToCreate
	admin := &fakeAdmin{
		createFn: func(_ context.Context, user *auth.UserToCreate) (*auth.UserRecord, error) {
			created = user
			return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: "new-uid"}}, nil
		},
	}
	p := newTestProvider(t, admin, func(http.ResponseWriter, *http.Request) {})

	uid, err := p.SignUp(context.Background(), "traveller@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "new-uid", uid)
	require.NotNil(t, created)
}

func TestSignUpProviderMessage(t *testing.T) {
	admin := &fakeAdmin{
		createFn: func(context.Context, *auth.UserToCreate) (*auth.UserRecord, error) {
			return nil, errors.New("INVALID_EMAIL: email is malformed")
		},
	}
	p := newTestProvider(t, admin, func(http.ResponseWriter, *http.Request) {})

	_, err := p.SignUp(context.Background(), "nope", "secret123")
	assert.Equal(t, CodeInvalidEmail, Code(err))
}

func TestUpdatePasswordUnknownUser(t *testing.T) {
	admin := &fakeAdmin{
		updateFn: func(context.Context, string, *auth.UserToUpdate) (*auth.UserRecord, error) {
			return nil, errors.New("USER_NOT_FOUND: no user record")
		},
	}
	p := newTestProvider(t, admin, func(http.ResponseWriter, *http.Request) {})

	err := p.UpdatePassword(context.Background(), "ghost", "secret123")
	assert.Equal(t, CodeUserNotFound, Code(err))
	assert.Equal(t, "❌ The user account was not found.", FriendlyMessage(err))
}

func TestFriendlyMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"known code", &Error{Code: CodeEmailExists}, "📧 This email is already registered."},
		{"code with detail", &Error{Code: CodeWeakPassword, Message: "WEAK_PASSWORD : Password should be at least 6 characters"}, "🔑 The password must be at least 8 characters long."},
		{"scanned from plain error", errors.New("firebase: TOKEN_EXPIRED"), "🔑 Your session has expired. Please log in again."},
		{
			"password requirements",
			&Error{
				Code:    CodePasswordRequirements,
				Message: "PASSWORD_DOES_NOT_MEET_REQUIREMENTS : Missing password requirements: [Password must contain at least 8 characters, Password must contain a numeric character]",
			},
			"🔒 Password requirements not met:\n- Password must contain at least 8 characters\n- Password must contain a numeric character",
		},
		{"password requirements without list", &Error{Code: CodePasswordRequirements}, "🔒 The password does not meet the requirements."},
		{"unknown", errors.New("socket closed"), "❌ An unexpected error occurred: socket closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FriendlyMessage(tt.err))
		})
	}
}

func TestCodeFromMessage(t *testing.T) {
	assert.Equal(t, "WEAK_PASSWORD", codeFromMessage("WEAK_PASSWORD : Password should be at least 6 characters"))
	assert.Equal(t, "EMAIL_EXISTS", codeFromMessage("EMAIL_EXISTS"))
}
