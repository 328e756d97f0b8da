package model

import "time"

// Bank はサイドバーに表示する連携済み銀行を表す。
type Bank struct {
	ID             string
	Name           string
	CurrentBalance float64
}

// Account は残高ボックスに表示する口座を表す。
type Account struct {
	ID               string
	Name             string
	OfficialName     string
	Mask             string
	Type             string
	CurrentBalance   float64
	AvailableBalance float64
}

// Transaction は取引履歴の1件を表す。
type Transaction struct {
	ID        string
	Name      string
	Amount    float64
	Category  string
	Channel   string
	Date      time.Time
	AccountID string
}

// AccountSummary はダッシュボードに表示する口座サマリ。
type AccountSummary struct {
	Accounts            []Account
	TotalBanks          int
	TotalCurrentBalance float64
	Banks               []Bank
	Transactions        []Transaction
}
