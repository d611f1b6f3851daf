// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService は相談メッセージやプロフィール項目などのユーザー入力から
// HTMLタグを除去し、プレーンテキストとして保存できる形に整える。
// bluemondayのStrictPolicyで全タグを落とした後、エスケープされた文字参照を元に戻す。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はプレーンテキスト入力のサニタイズ機能のインターフェースを定義する。
type TextSanitizerService interface {
	// Sanitize は入力から全てのHTML要素を取り除き、前後の空白を除去したテキストを返す。
	// script/styleの中身は破棄される。同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemonday.Policyはゴルーチンセーフなので共有して使う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタグを除去したプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	// StrictPolicyは & < > などを実体参照にするため、保存前に戻す
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// SanitizeAll はスライスの各要素をサニタイズし、空になった要素を取り除く。
func SanitizeAll(s TextSanitizerService, values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if c := s.Sanitize(v); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// compile-time interface check
var _ TextSanitizerService = (*textSanitizer)(nil)
