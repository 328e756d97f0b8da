// Package view はサーバー側で描画するHTMLページを提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/hitoshi/horizon/internal/authform"
	"github.com/hitoshi/horizon/internal/dashboard"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページ名
const (
	PageHome = "home"
	PageAuth = "auth"
)

// HomeData はホーム画面の描画データ。
type HomeData struct {
	Page      *dashboard.HomePage
	CSRFToken string
}

// AuthData はサインイン/サインアップ画面の描画データ。
type AuthData struct {
	Form   *authform.Form
	Values authform.Values
	Errors authform.FieldErrors
	// CSRFToken はフォームのhidden項目に埋め込むトークン。
	CSRFToken string
}

var funcs = template.FuncMap{
	"amount": dashboard.FormatAmount,
}

// Renderer は埋め込みテンプレートからページを描画する。
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer は全ページのテンプレートを解析してRendererを生成する。
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{PageHome, PageAuth} {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render はページを描画してステータスコードとともに書き込む。
// 描画に失敗した場合は何も書き込まずにエラーを返す。
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
