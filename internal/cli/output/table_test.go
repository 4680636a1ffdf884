package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableRender(t *testing.T) {
	tbl := NewTable("id", "msg down")
	tbl.AddRow("alice", "yes")
	tbl.AddRow("bob", "no")

	var sb strings.Builder
	tbl.Render(&sb)
	out := sb.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
	assert.Less(t, strings.Index(out, "alice"), strings.Index(out, "bob"))
}
