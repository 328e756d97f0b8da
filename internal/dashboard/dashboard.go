// Package dashboard はホーム画面に表示するウィジェットを組み立てる。
package dashboard

import (
	"context"
	"fmt"

	"github.com/hitoshi/horizon/internal/model"
)

// GuestName はログインしていない場合の挨拶に使う名前。
const GuestName = "Guest"

// UserLookup はセッションからログイン中のユーザーを取得する。
// ログインしていない場合は (nil, nil) を返す。
type UserLookup interface {
	GetLoggedInUser(ctx context.Context, sessionID string) (*model.User, error)
}

// AccountSource は口座サマリの取得元。
type AccountSource interface {
	Summary(ctx context.Context, user *model.User) (*model.AccountSummary, error)
}

// HeaderBox は画面上部の挨拶ヘッダー。
type HeaderBox struct {
	Type    string
	Title   string
	User    string
	Subtext string
}

// TotalBalanceBox は口座数と合計残高のウィジェット。
type TotalBalanceBox struct {
	Accounts            []model.Account
	TotalBanks          int
	TotalCurrentBalance float64
}

// FormattedTotal は合計残高を通貨表記で返す。
func (b TotalBalanceBox) FormattedTotal() string {
	return FormatAmount(b.TotalCurrentBalance)
}

// RecentTransactions は直近の取引一覧ウィジェット。
type RecentTransactions struct {
	Transactions []model.Transaction
}

// RightSidebar は右サイドバー。
type RightSidebar struct {
	User         *model.User
	Transactions []model.Transaction
	Banks        []model.Bank
}

// HomePage はホーム画面全体の表示内容。
type HomePage struct {
	Header       HeaderBox
	TotalBalance TotalBalanceBox
	Recent       RecentTransactions
	Sidebar      RightSidebar
}

// Composer はホーム画面を組み立てる。
type Composer struct {
	users    UserLookup
	accounts AccountSource
}

// NewComposer はComposerを生成する。
func NewComposer(users UserLookup, accounts AccountSource) *Composer {
	return &Composer{users: users, accounts: accounts}
}

// Compose はセッションのユーザーを1回だけ取得し、ホーム画面の各ウィジェットを組み立てる。
// ユーザー取得に失敗した場合はエラーを返す。
func (c *Composer) Compose(ctx context.Context, sessionID string) (*HomePage, error) {
	user, err := c.users.GetLoggedInUser(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get logged in user: %w", err)
	}

	summary, err := c.accounts.Summary(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("get account summary: %w", err)
	}

	name := GuestName
	if user != nil && user.DisplayName() != "" {
		name = user.DisplayName()
	}

	return &HomePage{
		Header: HeaderBox{
			Type:    "greeting",
			Title:   "Welcome",
			User:    name,
			Subtext: "Access and manage your account and transactions efficiently.",
		},
		TotalBalance: TotalBalanceBox{
			Accounts:            summary.Accounts,
			TotalBanks:          summary.TotalBanks,
			TotalCurrentBalance: summary.TotalCurrentBalance,
		},
		Recent: RecentTransactions{
			Transactions: summary.Transactions,
		},
		Sidebar: RightSidebar{
			User:         user,
			Transactions: summary.Transactions,
			Banks:        summary.Banks,
		},
	}, nil
}
