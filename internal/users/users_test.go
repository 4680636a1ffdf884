package users

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleList = `id, password, msgDown, msgUp, fileDown, fileUp
alice, pw, 1, 1, 1, 1
bob, secret, true, FALSE, 0, True
`

func TestLoad(t *testing.T) {
	tbl, err := Load(strings.NewReader(sampleList))
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"alice", "bob"}, tbl.IDs())

	alice := tbl.Lookup("alice")
	require.NotNil(t, alice)
	assert.Equal(t, "pw", alice.Password)
	assert.Equal(t, Perms{MsgDown: true, MsgUp: true, FileDown: true, FileUp: true}, alice.Perms)

	bob := tbl.Lookup("bob")
	require.NotNil(t, bob)
	assert.Equal(t, Perms{MsgDown: true, MsgUp: false, FileDown: false, FileUp: true}, bob.Perms)

	assert.Nil(t, tbl.Lookup("mallory"))
}

func TestLoadSkipsHeaderAndBlankLines(t *testing.T) {
	tbl, err := Load(strings.NewReader("header line that is not parsed\n\nalice, pw, 1, 0, 1, 0\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"wrong field count", "header\nalice, pw, 1, 1\n"},
		{"bad boolean", "header\nalice, pw, 1, 1, yes, 0\n"},
		{"empty id", "header\n, pw, 1, 1, 1, 1\n"},
		{"duplicate id", "header\nalice, pw, 1, 1, 1, 1\nalice, other, 0, 0, 0, 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadCRLF(t *testing.T) {
	tbl, err := Load(strings.NewReader("header\r\nalice, pw, 1, 1, 1, 1\r\n"))
	require.NoError(t, err)
	assert.NotNil(t, tbl.Lookup("alice"))
}
