package nick

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
)

func TestExtract_DefaultPattern(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   string
		wantOK bool
	}{
		{"plain nick", "12:34 <alice> hello", "alice", true},
		{"voiced nick", "12:34 <+bob> hi", "bob", true},
		{"op nick", "12:34 <@carol> yo", "carol", true},
		{"no space after timestamp", "12:34<dave> hey", "dave", true},
		{"seconds in timestamp", "12:34:56 <erin> hey", "erin", true},
		{"four digit timestamp", "1234 <frank> x", "frank", true},
		{"case preserved", "12:34 <Alice|away> x", "Alice|away", true},
		{"first bracket only", "12:34 <alice> <bob> hi", "alice", true},
		{"empty line", "", "", false},
		{"empty nick", "12:34 <> hi", "", false},
		{"action line", "12:34  * alice waves", "", false},
		{"join line", "12:34 -!- bob has joined #go", "", false},
		{"timestamp too short", "1:2 <alice> hi", "", false},
		{"timestamp too long", "12:34:56:78 <alice> hi", "", false},
		{"not at line start", "hello 12:34 <alice> hi", "", false},
		{"space inside nick", "12:34 <al ice> hi", "", false},
		{"two spaces before bracket", "12:34  <alice> hi", "", false},
	}

	ex := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ex.Extract([]byte(tt.line))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_AnchorsUnanchoredPattern(t *testing.T) {
	// Given: a pattern without a leading caret
	ex, err := New(`\[[0-9:]+\] ([a-z]+):`)
	require.NoError(t, err)

	// Then: it only matches at the start of the line
	nick, ok := ex.Extract([]byte("[12:00] alice: hi"))
	assert.True(t, ok)
	assert.Equal(t, "alice", nick)

	_, ok = ex.Extract([]byte("x [12:00] alice: hi"))
	assert.False(t, ok)
	assert.Equal(t, `^(?:\[[0-9:]+\] ([a-z]+):)`, ex.Pattern())
}

func TestNew_RejectsBadPatterns(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{"does not compile", `^(<`},
		{"no capture group", `^[0-9:]{4,8} <[^ ]+>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.pattern)
			require.Error(t, err)
			assert.ErrorIs(t, err, werrors.ErrInvalidPattern)
		})
	}
}

func TestDefault_SharesPattern(t *testing.T) {
	assert.Equal(t, DefaultPattern, Default().Pattern())
}
