package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/horizon/internal/dashboard"
	"github.com/hitoshi/horizon/internal/middleware"
	"github.com/hitoshi/horizon/internal/view"
)

// PageComposer はホーム画面の組み立てを行う。
type PageComposer interface {
	Compose(ctx context.Context, sessionID string) (*dashboard.HomePage, error)
}

// HomeHandler はホーム画面のHTTPハンドラー。
type HomeHandler struct {
	composer PageComposer
	renderer Renderer
	logger   *slog.Logger
}

// NewHomeHandler はHomeHandlerを生成する。
func NewHomeHandler(composer PageComposer, renderer Renderer, logger *slog.Logger) *HomeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HomeHandler{composer: composer, renderer: renderer, logger: logger}
}

// Show はホーム画面を表示する。セッションがない場合はゲストとして表示する。
// GET /
func (h *HomeHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := h.composer.Compose(ctx, middleware.SessionIDFromContext(ctx))
	if err != nil {
		h.logger.Error("failed to compose home page", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := view.HomeData{Page: page, CSRFToken: middleware.CSRFTokenFromContext(ctx)}
	if err := h.renderer.Render(w, http.StatusOK, view.PageHome, data); err != nil {
		h.logger.Error("failed to render home page", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
