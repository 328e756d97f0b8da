// Command horizon はHorizonのWebサーバー・ワーカー・マイグレーションを起動する。
//
// 使い方:
//
//	horizon [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/horizon/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "horizon: %v\n", err)
		os.Exit(1)
	}
}
