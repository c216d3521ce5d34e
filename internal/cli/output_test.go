package cli

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short kept", "milk", "milk"},
		{"exact length kept", strings.Repeat("a", 10), strings.Repeat("a", 10)},
		{"ascii cut", strings.Repeat("a", 11), strings.Repeat("a", 7) + "..."},
		{"multibyte cut on rune boundary", strings.Repeat("é", 11), strings.Repeat("é", 7) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, 10)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestPrintItems_MultibytePayload(t *testing.T) {
	a := &app{}
	var out bytes.Buffer
	items := []*types.Item{{Index: 0, Payload: []byte(strings.Repeat("🥛", 80))}}

	assert.NoError(t, a.printItems(&out, items))
	assert.True(t, utf8.ValidString(out.String()))
	assert.Contains(t, out.String(), strings.Repeat("🥛", 57)+"...")
}
