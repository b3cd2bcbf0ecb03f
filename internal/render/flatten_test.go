package render

import "testing"

// TestFlattenHTML はサニタイズ済みHTMLの平文化をテストする。
func TestFlattenHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "متن ساده", "متن ساده"},
		{"paragraphs", "<p>سطر اول</p><p>سطر دوم</p>", "سطر اول\n\nسطر دوم"},
		{"line breaks", "سطر اول<br>سطر دوم", "سطر اول\nسطر دوم"},
		{"inline markup", "<strong>مهم</strong> و <em>تاکید</em>", "مهم و تاکید"},
		{"entity decoding", "a &amp; b", "a & b"},
		{"leading whitespace", "  متن  ", "متن"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlattenHTML(tt.input); got != tt.expected {
				t.Errorf("FlattenHTML(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestFlattenHTML_CollapsesBlankLines は連続した空行が1つにまとまることをテストする。
func TestFlattenHTML_CollapsesBlankLines(t *testing.T) {
	got := FlattenHTML("<p>الف</p><p></p><p></p><p>ب</p>")
	expected := "الف\n\nب"
	if got != expected {
		t.Errorf("expected blank lines to collapse to %q, got %q", expected, got)
	}
}

// TestCollapseBlankLines は空行の圧縮と前後トリムをテストする。
func TestCollapseBlankLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no blanks", "a\nb", "a\nb"},
		{"single blank kept", "a\n\nb", "a\n\nb"},
		{"double blank collapsed", "a\n\n\nb", "a\n\nb"},
		{"leading blanks removed", "\n\na", "a"},
		{"trailing blanks removed", "a\n\n", "a"},
		{"inner whitespace trimmed", "  a  \n  b  ", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collapseBlankLines(tt.input); got != tt.expected {
				t.Errorf("collapseBlankLines(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}
