package authform

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/horizon/internal/model"
)

// ErrSubmitInProgress は送信処理中に再度送信された場合に返される。
var ErrSubmitInProgress = errors.New("auth form submission already in progress")

// Actions はフォームが呼び出す認証アクション。
type Actions interface {
	SignUp(ctx context.Context, params model.SignUpParams) (*model.User, *model.Session, error)
	SignIn(ctx context.Context, params model.SignInParams) (*model.Session, error)
}

// Recorder は送信結果の記録先。
type Recorder interface {
	RecordSubmit(mode string, outcome string, duration time.Duration)
}

// Outcome は1回の送信の結果。
type Outcome string

const (
	OutcomeInvalid Outcome = "invalid"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// View はフォームが現在表示している画面。
type View string

const (
	// ViewForm は入力フォーム。
	ViewForm View = "form"
	// ViewLinkAccount はサインアップ成功後の口座連携画面（未実装のプレースホルダ）。
	ViewLinkAccount View = "link-account"
)

// RootPath はサインイン成功後の遷移先。
const RootPath = "/"

// Result は送信結果を表す。
type Result struct {
	Outcome     Outcome
	FieldErrors FieldErrors
	// Redirect はサインイン成功時の遷移先。それ以外は空。
	Redirect string
	// User はサインアップ成功時に作成されたユーザー。
	User *model.User
	// Session はサインイン/サインアップ成功時に発行されたセッション。
	Session *model.Session
}

// Footer はフォーム下部のモード切り替えリンク。
type Footer struct {
	Prompt    string
	LinkLabel string
	Href      string
}

// Option はFormの生成オプション。
type Option func(*Form)

// WithRecorder は送信結果の記録先を設定する。
func WithRecorder(r Recorder) Option {
	return func(f *Form) { f.recorder = r }
}

// WithLogger はロガーを設定する。未指定の場合はslog.Default()を使う。
func WithLogger(l *slog.Logger) Option {
	return func(f *Form) { f.logger = l }
}

// Form はサインイン/サインアップフォームの状態を保持する。
//
// 状態遷移: idle → submitting → (success | failure) → idle
// 送信中はisLoadingがtrueになり、送信完了時に結果に関わらずfalseに戻る。
type Form struct {
	mode     Mode
	schema   *Schema
	actions  Actions
	recorder Recorder
	logger   *slog.Logger

	mu      sync.Mutex
	loading bool
	user    *model.User
}

// New はFormを生成する。
func New(mode Mode, actions Actions, opts ...Option) *Form {
	f := &Form{
		mode:    mode,
		schema:  NewSchema(mode),
		actions: actions,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Mode はフォームのモードを返す。
func (f *Form) Mode() Mode {
	return f.mode
}

// IsLoading は送信処理中かどうかを返す。
func (f *Form) IsLoading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// User はサインアップで作成されたユーザーを返す。未作成の場合はnil。
func (f *Form) User() *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

// View は現在の表示画面を返す。
func (f *Form) View() View {
	if f.User() != nil {
		return ViewLinkAccount
	}
	return ViewForm
}

// Rows は描画する入力項目を返す。
func (f *Form) Rows() []FieldRow {
	return Rows(f.mode)
}

// Title は見出しを返す。
func (f *Form) Title() string {
	switch {
	case f.User() != nil:
		return "Link Account"
	case f.mode == ModeSignIn:
		return "Sign In"
	default:
		return "Sign Up"
	}
}

// Subtitle は見出し下の説明文を返す。
func (f *Form) Subtitle() string {
	if f.User() != nil {
		return "Link account to get started"
	}
	return "Please enter your details"
}

// SubmitLabel は送信ボタンの表示文言を返す。
func (f *Form) SubmitLabel() string {
	switch {
	case f.IsLoading():
		return "Loading..."
	case f.mode == ModeSignIn:
		return "Sign In"
	default:
		return "Sign Up"
	}
}

// Footer はもう一方のモードへのリンクを返す。
func (f *Form) Footer() Footer {
	if f.mode == ModeSignIn {
		return Footer{Prompt: "Create an account?", LinkLabel: "Sign up", Href: "/sign-up"}
	}
	return Footer{Prompt: "Already have an account?", LinkLabel: "Sign in", Href: "/sign-in"}
}

// Submit は入力値を検証し、モードに応じた認証アクションを呼び出す。
//
// 検証に失敗した場合はアクションを呼び出さずに項目ごとのエラーを返す。
// アクションのエラーはログに記録して破棄し、画面には表示しない。
// 送信中に再度呼び出された場合はErrSubmitInProgressを返す。
func (f *Form) Submit(ctx context.Context, values Values) (Result, error) {
	params, errs := f.schema.Parse(values)
	if errs != nil {
		f.record(OutcomeInvalid, 0)
		return Result{Outcome: OutcomeInvalid, FieldErrors: errs}, nil
	}

	if !f.begin() {
		return Result{}, ErrSubmitInProgress
	}

	start := time.Now()
	result := Result{Outcome: OutcomeFailure}
	defer func() {
		f.finish()
		f.record(result.Outcome, time.Since(start))
	}()

	switch f.mode {
	case ModeSignUp:
		user, session, err := f.actions.SignUp(ctx, params)
		if err != nil {
			f.logFailure(err)
			return result, nil
		}
		f.setUser(user)
		result = Result{Outcome: OutcomeSuccess, User: user, Session: session}

	case ModeSignIn:
		session, err := f.actions.SignIn(ctx, model.SignInParams{
			Email:    params.Email,
			Password: params.Password,
		})
		if err != nil {
			f.logFailure(err)
			return result, nil
		}
		if session != nil {
			result = Result{Outcome: OutcomeSuccess, Redirect: RootPath, Session: session}
		}
	}

	return result, nil
}

// begin はloadingをtrueにする。既に送信中の場合はfalseを返す。
func (f *Form) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return false
	}
	f.loading = true
	return true
}

func (f *Form) finish() {
	f.mu.Lock()
	f.loading = false
	f.mu.Unlock()
}

func (f *Form) setUser(u *model.User) {
	f.mu.Lock()
	f.user = u
	f.mu.Unlock()
}

func (f *Form) logFailure(err error) {
	f.logger.Error("auth form submission failed",
		slog.String("mode", string(f.mode)),
		slog.String("error", err.Error()),
	)
}

func (f *Form) record(outcome Outcome, d time.Duration) {
	if f.recorder != nil {
		f.recorder.RecordSubmit(string(f.mode), string(outcome), d)
	}
}
