// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/horizon/internal/authform"
	"github.com/hitoshi/horizon/internal/middleware"
	"github.com/hitoshi/horizon/internal/model"
	"github.com/hitoshi/horizon/internal/view"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	authform.Actions
	GetLoggedInUser(ctx context.Context, sessionID string) (*model.User, error)
	Logout(ctx context.Context, sessionID string) error
}

// Renderer はHTMLページの描画先。
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data any) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はサインイン/サインアップ関連のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	renderer Renderer
	recorder authform.Recorder
	config   AuthHandlerConfig
	logger   *slog.Logger
}

// NewAuthHandler はAuthHandlerを生成する。recorderはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, renderer Renderer, recorder authform.Recorder, config AuthHandlerConfig, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		service:  service,
		renderer: renderer,
		recorder: recorder,
		config:   config,
		logger:   logger,
	}
}

// ShowSignIn はサインインフォームを表示する。
// GET /sign-in
func (h *AuthHandler) ShowSignIn(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, authform.ModeSignIn)
}

// ShowSignUp はサインアップフォームを表示する。
// GET /sign-up
func (h *AuthHandler) ShowSignUp(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, authform.ModeSignUp)
}

// SubmitSignIn はサインインフォームの送信を処理する。
// POST /sign-in
func (h *AuthHandler) SubmitSignIn(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, authform.ModeSignIn)
}

// SubmitSignUp はサインアップフォームの送信を処理する。
// POST /sign-up
func (h *AuthHandler) SubmitSignUp(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, authform.ModeSignUp)
}

func (h *AuthHandler) show(w http.ResponseWriter, r *http.Request, mode authform.Mode) {
	h.render(w, r, http.StatusOK, view.AuthData{Form: h.newForm(mode)})
}

// submit は入力値をフォームに渡し、結果に応じて応答する。
//
//   - 検証エラー: 422で入力値とエラーを再表示
//   - サインイン成功: セッションCookieを設定して / へ303リダイレクト
//   - サインアップ成功: セッションCookieを設定して口座連携画面を表示
//   - 認証アクション失敗: エラーを表示せずにフォームを再表示
func (h *AuthHandler) submit(w http.ResponseWriter, r *http.Request, mode authform.Mode) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("form"))
		return
	}

	form := h.newForm(mode)
	values := authform.ValuesFromURL(r.PostForm)

	result, err := form.Submit(r.Context(), values)
	if errors.Is(err, authform.ErrSubmitInProgress) {
		h.render(w, r, http.StatusConflict, view.AuthData{Form: form, Values: values})
		return
	}
	if err != nil {
		h.logger.Error("auth form submit failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	switch result.Outcome {
	case authform.OutcomeInvalid:
		h.render(w, r, http.StatusUnprocessableEntity, view.AuthData{
			Form:   form,
			Values: values,
			Errors: result.FieldErrors,
		})
		return

	case authform.OutcomeSuccess:
		if result.Session != nil {
			h.setSessionCookie(w, result.Session.ID, h.config.SessionMaxAge)
		}
		if result.Redirect != "" {
			http.Redirect(w, r, result.Redirect, http.StatusSeeOther)
			return
		}
	}

	h.render(w, r, http.StatusOK, view.AuthData{Form: form, Values: values})
}

// Logout はセッションを破棄してサインイン画面へリダイレクトする。
// POST /sign-out
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			h.logger.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.setSessionCookie(w, "", -1)
	http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
}

// Me は現在のログインユーザー情報を返す。
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetLoggedInUser(r.Context(), middleware.SessionIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("failed to get logged in user", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if user == nil {
		apiErr := model.NewUnauthorizedError()
		middleware.WriteErrorResponse(w, middleware.StatusForAPIError(apiErr), apiErr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":        user.ID,
		"email":     user.Email,
		"name":      user.DisplayName(),
		"firstName": user.FirstName,
		"lastName":  user.LastName,
	})
}

func (h *AuthHandler) newForm(mode authform.Mode) *authform.Form {
	opts := []authform.Option{authform.WithLogger(h.logger)}
	if h.recorder != nil {
		opts = append(opts, authform.WithRecorder(h.recorder))
	}
	return authform.New(mode, h.service, opts...)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, data view.AuthData) {
	data.CSRFToken = middleware.CSRFTokenFromContext(r.Context())
	if err := h.renderer.Render(w, status, view.PageAuth, data); err != nil {
		h.logger.Error("failed to render auth page", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// setSessionCookie はセッションCookieを設定する。maxAgeが負の場合は削除する。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
