package helper

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	a, err := NewID("snapshot")
	require.NoError(t, err)
	b, err := NewID("snapshot")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "snapshot-"))
	assert.Len(t, a, len("snapshot-")+36)
	assert.NotEqual(t, a, b)
}

func TestPrettyPrint(t *testing.T) {
	var buf bytes.Buffer
	PrettyPrint(&buf, map[string]int{"chunks": 3})
	assert.Equal(t, "{\n  \"chunks\": 3\n}\n", buf.String())

	buf.Reset()
	PrettyPrint(&buf, func() {})
	assert.Empty(t, buf.String())
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", Shorten("short", 10))
	assert.Equal(t, "héllo…", Shorten("héllo wörld", 5))
	assert.Equal(t, "unbounded", Shorten("unbounded", 0))
}
