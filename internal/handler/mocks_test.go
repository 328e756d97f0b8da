package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/horizon/internal/dashboard"
	"github.com/hitoshi/horizon/internal/model"
	"github.com/hitoshi/horizon/internal/view"
)

// --- モック定義 ---

type mockAuthService struct {
	signUpFn          func(ctx context.Context, params model.SignUpParams) (*model.User, *model.Session, error)
	signInFn          func(ctx context.Context, params model.SignInParams) (*model.Session, error)
	getLoggedInUserFn func(ctx context.Context, sessionID string) (*model.User, error)
	logoutFn          func(ctx context.Context, sessionID string) error

	signUpCalls int
	signInCalls int
}

func (m *mockAuthService) SignUp(ctx context.Context, params model.SignUpParams) (*model.User, *model.Session, error) {
	m.signUpCalls++
	if m.signUpFn != nil {
		return m.signUpFn(ctx, params)
	}
	return nil, nil, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, params model.SignInParams) (*model.Session, error) {
	m.signInCalls++
	if m.signInFn != nil {
		return m.signInFn(ctx, params)
	}
	return nil, nil
}

func (m *mockAuthService) GetLoggedInUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.getLoggedInUserFn != nil {
		return m.getLoggedInUserFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockSessionFinder struct {
	sessions map[string]*model.Session
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, nil
}

type mockComposer struct {
	composeFn func(ctx context.Context, sessionID string) (*dashboard.HomePage, error)
}

func (m *mockComposer) Compose(ctx context.Context, sessionID string) (*dashboard.HomePage, error) {
	return m.composeFn(ctx, sessionID)
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// --- ヘルパー ---

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	r, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func validSignUpValues() url.Values {
	return url.Values{
		"firstName":   {"Jane"},
		"lastName":    {"Doe"},
		"address1":    {"1 Main St"},
		"city":        {"Springfield"},
		"state":       {"IL"},
		"postalCode":  {"62701"},
		"dateOfBirth": {"1990-01-01"},
		"ssn":         {"1234"},
		"email":       {"jane@example.com"},
		"password":    {"password123"},
	}
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
