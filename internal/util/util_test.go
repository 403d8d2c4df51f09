package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimQuotes(t *testing.T) {
	assert.Equal(t, "hello", TrimQuotes(`"hello"`))
	assert.Equal(t, "hello", TrimQuotes("hello"))
	assert.Equal(t, "", TrimQuotes(`""`))
}

func TestFixEscapeQuotes(t *testing.T) {
	assert.Equal(t, `say "hi"`, FixEscapeQuotes(`say ""hi""`))
	assert.Equal(t, "plain", FixEscapeQuotes("plain"))
}

func TestParseAccountID(t *testing.T) {
	id, err := ParseAccountID(`"76561198000000001"`)
	require.NoError(t, err)
	assert.Equal(t, uint64(76561198000000001), id)

	_, err = ParseAccountID("not_a_number")
	assert.Error(t, err)

	_, err = ParseAccountID("-5")
	assert.Error(t, err)
}

func TestParseSlot(t *testing.T) {
	slot, err := ParseSlot(` "12" `)
	require.NoError(t, err)
	assert.Equal(t, 12, slot)

	_, err = ParseSlot("abc")
	assert.Error(t, err)
}
