package picker

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"sgr color", "\x1b[31mred\x1b[0m", "red"},
		{"cursor movement", "\x1b[2Kline", "line"},
		{"osc title", "\x1b]0;title\x07text", "text"},
		{"charset", "\x1b(Bascii", "ascii"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripANSI(tt.in))
		})
	}
}

func TestNormalizeDisplay(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"multiline", "first\nsecond\nthird", "first second third"},
		{"tabs and runs", "a\t\tb   c", "a b c"},
		{"surrounding space", "  padded  ", "padded"},
		{"escapes inside", "\x1b[1mbold\x1b[0m text", "bold text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDisplay(tt.in))
		})
	}
}

func TestValidateUTF8ReplacesInvalidBytes(t *testing.T) {
	assert.Equal(t, "ok", ValidateUTF8("ok"))
	assert.Equal(t, "a�b", ValidateUTF8("a\xffb"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "…", Truncate("anything", 1))

	got := Truncate(strings.Repeat("x", 50), 10)
	assert.Equal(t, "xxxxxxxxx…", got)
	assert.Equal(t, 10, runewidth.StringWidth(got))
}

func TestTruncateWideRunes(t *testing.T) {
	// Each CJK rune is two columns wide.
	got := Truncate("日本語テキスト", 7)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 7)
	assert.True(t, strings.HasSuffix(got, "…"))
}
