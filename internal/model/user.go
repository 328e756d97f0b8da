// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// User はサービス利用ユーザーを表す。
// 本人確認項目はサインアップフォームから受け取ったものをそのまま保持する。
type User struct {
	ID           string
	Email        string
	Name         string
	FirstName    string
	LastName     string
	Address1     string
	City         string
	State        string
	PostalCode   string
	DateOfBirth  string
	SSN          string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName は挨拶表示用の名前を返す。
// Nameが空の場合は姓名から組み立てる。
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SignUpParams はサインアップ時にフォームから認証アクションへ渡す入力値。
type SignUpParams struct {
	FirstName   string
	LastName    string
	Address1    string
	City        string
	State       string
	PostalCode  string
	DateOfBirth string
	SSN         string
	Email       string
	Password    string
}

// SignInParams はサインイン時にフォームから認証アクションへ渡す入力値。
type SignInParams struct {
	Email    string
	Password string
}
