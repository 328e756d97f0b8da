// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はフォームから受け取ったプレーンテキスト項目（氏名・住所など）から
// HTMLマークアップを除去する。bluemondayのStrictPolicyを使用し、
// タグは全て取り除き、テキストのみを残す。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト項目のサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Clean は入力からHTMLタグを除去し、前後の空白を取り除いた文字列を返す。
	// script, styleタグは中身ごと除去される。
	// 出力はエスケープされていないプレーンテキスト（表示時のエスケープはテンプレートが行う）。
	Clean(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなため、インスタンスを共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxCleanPasses はエンティティで多重にエンコードされたマークアップを剥がす最大回数。
const maxCleanPasses = 4

// Clean は入力からHTMLタグを除去する。
// エンティティでエンコードされたタグ（&lt;b&gt; など）も、デコード後に再度除去する。
func (s *textSanitizer) Clean(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := raw
	for i := 0; i < maxCleanPasses; i++ {
		// StrictPolicyは出力をHTMLエスケープするため、保存用に元へ戻す
		next := html.UnescapeString(s.policy.Sanitize(cleaned))
		if next == cleaned {
			break
		}
		cleaned = next
	}
	return strings.TrimSpace(cleaned)
}
