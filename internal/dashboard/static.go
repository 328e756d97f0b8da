package dashboard

import (
	"context"

	"github.com/hitoshi/horizon/internal/model"
)

// StaticAccounts は固定値の口座サマリを返すAccountSource。
// 銀行連携が実装されるまでの間、全ユーザーに同じ値を表示する。
type StaticAccounts struct{}

// Summary は固定の口座サマリを返す。
func (StaticAccounts) Summary(_ context.Context, _ *model.User) (*model.AccountSummary, error) {
	return &model.AccountSummary{
		Accounts:            []model.Account{},
		TotalBanks:          3,
		TotalCurrentBalance: 36714.56,
		Banks: []model.Bank{
			{CurrentBalance: 162885.32},
			{CurrentBalance: 5124.31},
		},
		Transactions: []model.Transaction{},
	}, nil
}
