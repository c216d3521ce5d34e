package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentity(t *testing.T) {
	valid := strings.Repeat("ab", IdentitySize)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid hex", input: valid},
		{name: "too short", input: "abcd", wantErr: true},
		{name: "not hex", input: strings.Repeat("zz", IdentitySize), wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseIdentity(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIdentity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestIdentityEqual(t *testing.T) {
	a := Identity{1}
	b := Identity{1}
	c := Identity{2}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, Identity{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestIdentityJSON(t *testing.T) {
	p := Profile{Owner: Identity{0xff}, NextIndex: 2, LiveCount: 1}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"owner":"ff00`)

	var got Profile
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, p, got)
}

func TestParseAddress(t *testing.T) {
	a := Address{9, 8, 7}
	got, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = ParseAddress("00")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestSelf(t *testing.T) {
	id := Identity{3}
	c := Self(id)
	assert.Equal(t, id, c.Proven)
	assert.Equal(t, id, c.Claimed)
}
