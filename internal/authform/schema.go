// Package authform はサインイン/サインアップフォームの入力検証と送信処理を提供する。
//
// フォームはモード（sign-in / sign-up）によって描画する項目と検証スキーマを切り替える。
// 検証に通った入力だけが認証アクションに渡される。
package authform

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/horizon/internal/model"
	"github.com/hitoshi/horizon/internal/security"
)

// Mode はフォームの種類を表す。
type Mode string

const (
	// ModeSignIn はメールアドレスとパスワードのみを受け付けるサインインフォーム。
	ModeSignIn Mode = "sign-in"
	// ModeSignUp は本人確認項目を含むサインアップフォーム。
	ModeSignUp Mode = "sign-up"
)

// ParseMode は文字列からModeを解析する。
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSignIn, ModeSignUp:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown auth form type: %q", s)
	}
}

// Values はフォーム項目名から入力値へのマッピング。
type Values map[string]string

// ValuesFromURL はHTTPフォームの値からValuesを生成する。
// 同名項目が複数ある場合は先頭の値を使う。
func ValuesFromURL(form url.Values) Values {
	v := make(Values, len(form))
	for key := range form {
		v[key] = form.Get(key)
	}
	return v
}

// FieldErrors は項目名から検証エラーメッセージへのマッピング。
type FieldErrors map[string]string

// signInInput はサインインスキーマ。
type signInInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=8"`
}

// signUpInput はサインアップスキーマ。本人確認項目は全て必須。
type signUpInput struct {
	FirstName   string `form:"firstName" validate:"required,min=3"`
	LastName    string `form:"lastName" validate:"required,min=3"`
	Address1    string `form:"address1" validate:"required,max=50"`
	City        string `form:"city" validate:"required,max=50"`
	State       string `form:"state" validate:"required,len=2"`
	PostalCode  string `form:"postalCode" validate:"required,min=3,max=6"`
	DateOfBirth string `form:"dateOfBirth" validate:"required,min=3"`
	SSN         string `form:"ssn" validate:"required,min=3"`
	Email       string `form:"email" validate:"required,email"`
	Password    string `form:"password" validate:"required,min=8"`
}

// validate は全スキーマで共有するバリデータ。構造体情報をキャッシュし、並行利用できる。
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーの項目名にフォーム項目名を使う
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// sanitizer は本人確認項目からマークアップを除去する。
// 検証は除去後の値に対して行うため、マークアップだけの入力は未入力として扱われる。
var sanitizer = security.NewTextSanitizer()

// Schema はモードに応じた検証スキーマ。
type Schema struct {
	mode Mode
}

// NewSchema は指定モードのSchemaを生成する。
func NewSchema(mode Mode) *Schema {
	return &Schema{mode: mode}
}

// Required はこのスキーマで必須となる項目名を返す。
func (s *Schema) Required() []string {
	if s.mode == ModeSignUp {
		return []string{
			"firstName", "lastName", "address1", "city", "state",
			"postalCode", "dateOfBirth", "ssn", "email", "password",
		}
	}
	return []string{"email", "password"}
}

// Parse は入力値を検証し、認証アクションに渡すパラメータを返す。
// 検証エラーがある場合は項目ごとのメッセージを返す。
// サインインモードではEmailとPassword以外のフィールドは空のまま。
func (s *Schema) Parse(values Values) (model.SignUpParams, FieldErrors) {
	get := func(key string) string { return strings.TrimSpace(values[key]) }
	clean := func(key string) string { return sanitizer.Clean(values[key]) }

	if s.mode == ModeSignUp {
		in := signUpInput{
			FirstName:   clean("firstName"),
			LastName:    clean("lastName"),
			Address1:    clean("address1"),
			City:        clean("city"),
			State:       clean("state"),
			PostalCode:  clean("postalCode"),
			DateOfBirth: clean("dateOfBirth"),
			SSN:         clean("ssn"),
			Email:       get("email"),
			Password:    values["password"],
		}
		if errs := fieldErrors(validate.Struct(in)); errs != nil {
			return model.SignUpParams{}, errs
		}
		return model.SignUpParams(in), nil
	}

	in := signInInput{
		Email:    get("email"),
		Password: values["password"],
	}
	if errs := fieldErrors(validate.Struct(in)); errs != nil {
		return model.SignUpParams{}, errs
	}
	return model.SignUpParams{Email: in.Email, Password: in.Password}, nil
}

// fieldErrors はバリデータのエラーを項目ごとのメッセージに変換する。
func fieldErrors(err error) FieldErrors {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}

	errs := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		// 1項目に複数のルール違反がある場合は最初のものだけを表示する
		if _, exists := errs[fe.Field()]; !exists {
			errs[fe.Field()] = message(fe)
		}
	}
	return errs
}

// message はルール違反に対応する表示メッセージを返す。
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "min":
		return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
	case "len":
		return fmt.Sprintf("String must contain exactly %s character(s)", fe.Param())
	default:
		return "Invalid input"
	}
}
