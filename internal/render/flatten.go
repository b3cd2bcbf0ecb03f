package render

import (
	"strings"

	"golang.org/x/net/html"
)

// FlattenHTML はサニタイズ済みHTMLを端末表示用の平文に変換する。
// テキストノードを連結し、br・p・liは改行として扱う。
// HTMLエンティティ（&amp;等）はトークナイザーがデコードする。
// マークアップを含まない入力はそのまま返る。
func FlattenHTML(sanitized string) string {
	if !strings.ContainsRune(sanitized, '<') && !strings.ContainsRune(sanitized, '&') {
		return strings.TrimSpace(sanitized)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(sanitized))
	var b strings.Builder

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			// io.EOFを含む。サニタイズ済み入力のため壊れたHTMLはここで打ち切る
			return collapseBlankLines(b.String())
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "br", "p", "li":
				b.WriteString("\n")
			}
		}
	}
}

// collapseBlankLines は連続した空行を1つにまとめ、前後の空白を除去する。
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			if len(out) == 0 {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, trimmed)
	}
	// 末尾の空行を除去
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
