package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// newPageRouter はアプリケーションのページグループと同じ順序でミドルウェアを積んだルーターを返す。
// SecurityHeaders -> Metrics -> OptionalSession -> Logging -> RateLimit -> CSRF
func newPageRouter(t *testing.T, observer StatusObserver, rlConfig RateLimiterConfig) chi.Router {
	t.Helper()

	rl := NewRateLimiter(rlConfig, &mockRateLimitObserver{})
	t.Cleanup(rl.Stop)

	csrfConfig := CSRFConfig{CookieSecure: false}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(NewSecurityHeadersMiddleware())
		r.Use(NewMetricsMiddleware(observer))
		r.Use(NewOptionalSessionMiddleware(validSessionRepo()))
		r.Use(NewLoggingMiddleware(logger))
		r.Use(rl.GeneralMiddleware())
		r.Use(NewCSRFMiddleware(csrfConfig))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			json.NewEncoder(w).Encode(map[string]string{
				"user_id":    userID,
				"csrf_token": CSRFTokenFromContext(r.Context()),
			})
		})
		r.With(rl.AuthMiddleware()).Post("/sign-in", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})
		r.Method(http.MethodGet, "/api/csrf-token", NewCSRFTokenHandler(csrfConfig))
		r.With(NewSessionMiddleware(validSessionRepo())).Get("/api/me", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			json.NewEncoder(w).Encode(map[string]string{"user_id": userID})
		})
	})
	return r
}

func generousRateLimits() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     100,
		GeneralBurst:    100,
		AuthRate:        100,
		AuthBurst:       100,
		CleanupInterval: time.Minute,
	}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

// TestPageRouter_GuestGET はゲストのGETがセッションなしで通り、
// CSRF Cookieとセキュリティヘッダーが付与されることを検証する。
func TestPageRouter_GuestGET(t *testing.T) {
	observer := &mockStatusObserver{}
	r := newPageRouter(t, observer, generousRateLimits())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}

	body := decodeBody(t, resp)
	if body["user_id"] != "" {
		t.Errorf("user_id = %q, want empty for guest", body["user_id"])
	}

	var cookieToken string
	for _, c := range resp.Cookies() {
		if c.Name == csrfCookieName {
			cookieToken = c.Value
		}
	}
	if cookieToken == "" {
		t.Fatal("expected CSRF cookie to be set")
	}
	if body["csrf_token"] != cookieToken {
		t.Errorf("context token = %q, want cookie token %q", body["csrf_token"], cookieToken)
	}

	if len(observer.statuses) != 1 || observer.statuses[0] != http.StatusOK {
		t.Errorf("recorded statuses = %v, want [200]", observer.statuses)
	}
}

// TestPageRouter_SessionCookieInjectsUser はセッションCookieのユーザーが後段に渡ることを検証する。
func TestPageRouter_SessionCookieInjectsUser(t *testing.T) {
	r := newPageRouter(t, &mockStatusObserver{}, generousRateLimits())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if body := decodeBody(t, w.Result()); body["user_id"] != "user-123" {
		t.Errorf("user_id = %q, want %q", body["user_id"], "user-123")
	}
}

// TestPageRouter_FormPOST はフォーム項目のCSRFトークンによる送信を検証する。
func TestPageRouter_FormPOST(t *testing.T) {
	tests := []struct {
		name       string
		formToken  string
		wantStatus int
	}{
		{"トークン一致は通る", "form-token", http.StatusSeeOther},
		{"トークンなしは403", "", http.StatusForbidden},
		{"トークン不一致は403", "other-token", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &mockStatusObserver{}
			r := newPageRouter(t, observer, generousRateLimits())

			form := url.Values{"email": {"jane@example.com"}}
			if tt.formToken != "" {
				form.Set(CSRFFormField, tt.formToken)
			}
			req := httptest.NewRequest(http.MethodPost, "/sign-in", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "form-token"})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if len(observer.statuses) != 1 || observer.statuses[0] != tt.wantStatus {
				t.Errorf("recorded statuses = %v, want [%d]", observer.statuses, tt.wantStatus)
			}
		})
	}
}

// TestPageRouter_GeneralRateLimitKeysBySession はログイン済みリクエストが
// セッションのユーザー単位で制限されることを検証する（OptionalSessionがRateLimitより前段）。
func TestPageRouter_GeneralRateLimitKeysBySession(t *testing.T) {
	observer := &mockStatusObserver{}
	r := newPageRouter(t, observer, RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    1,
		AuthRate:        1,
		AuthBurst:       1,
		CleanupInterval: time.Minute,
	})

	send := func(remoteAddr string, withSession bool) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		if withSession {
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if got := send("192.0.2.1:1234", true); got != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", got)
	}
	// 別IPでも同じユーザーなので制限される
	if got := send("192.0.2.2:1234", true); got != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", got)
	}
	// ゲストはIP単位なので通る
	if got := send("192.0.2.1:1234", false); got != http.StatusOK {
		t.Errorf("guest request status = %d, want 200", got)
	}

	want := []int{http.StatusOK, http.StatusTooManyRequests, http.StatusOK}
	if len(observer.statuses) != len(want) {
		t.Fatalf("recorded statuses = %v, want %v", observer.statuses, want)
	}
	for i := range want {
		if observer.statuses[i] != want[i] {
			t.Errorf("statuses[%d] = %d, want %d", i, observer.statuses[i], want[i])
		}
	}
}

// TestPageRouter_CSRFTokenEndpoint はトークン取得エンドポイントがCSRFミドルウェアの
// 発行したトークンをそのまま返すことを検証する。
func TestPageRouter_CSRFTokenEndpoint(t *testing.T) {
	r := newPageRouter(t, &mockStatusObserver{}, generousRateLimits())

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := decodeBody(t, w.Result()); body["token"] != "existing-token" {
		t.Errorf("token = %q, want %q", body["token"], "existing-token")
	}
}

// TestPageRouter_MeRequiresSession は/api/meだけが必須セッションで保護されることを検証する。
func TestPageRouter_MeRequiresSession(t *testing.T) {
	r := newPageRouter(t, &mockStatusObserver{}, generousRateLimits())

	t.Run("セッションなしは401", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
		}
	})

	t.Run("有効なセッションは200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if body := decodeBody(t, w.Result()); body["user_id"] != "user-123" {
			t.Errorf("user_id = %q, want %q", body["user_id"], "user-123")
		}
	})
}
