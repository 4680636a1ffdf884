package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ByteSize
	}{
		{"0", 0},
		{"1024", 1024},
		{"1Ki", KiB},
		{"1KiB", KiB},
		{"2Gi", 2 * GiB},
		{"256MB", 256 * MB},
		{"100mb", 100 * MB},
		{"1.5Gi", ByteSize(1.5 * float64(GiB))},
		{" 10 Mi ", 10 * MiB},
		{"5b", 5},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "abc", "10XB", "..5", "-1"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalText(t *testing.T) {
	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("2Gi")))
	assert.Equal(t, 2*GiB, b)

	assert.Error(t, b.UnmarshalText([]byte("nope")))
}

func TestString(t *testing.T) {
	assert.Equal(t, "2Gi", (2 * GiB).String())
	assert.Equal(t, "512Mi", (512 * MiB).String())
	assert.Equal(t, "1000", ByteSize(1000).String())
}
