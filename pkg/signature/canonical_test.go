package signature

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	t.Run("double encodes sorted query", func(t *testing.T) {
		got := Canonicalize(Payload{"b": "2", "a": "1"})
		assert.Equal(t, "a%3D1%26b%3D2", got)
	})

	t.Run("empty payload", func(t *testing.T) {
		assert.Equal(t, "", Canonicalize(Payload{}))
		assert.Equal(t, "", Canonicalize(nil))
	})

	t.Run("insertion order does not matter", func(t *testing.T) {
		first := Payload{}
		first["zeta"] = "1"
		first["alpha"] = "2"
		first["mid"] = "3"

		second := Payload{}
		second["mid"] = "3"
		second["zeta"] = "1"
		second["alpha"] = "2"

		assert.Equal(t, Canonicalize(first), Canonicalize(second))
		assert.Equal(t, "alpha=2&mid=3&zeta=1", BuildQuery(first))
	})

	t.Run("space and tilde", func(t *testing.T) {
		assert.Equal(t, "k=a+b%7E", BuildQuery(Payload{"k": "a b~"}))
		assert.Equal(t, "k%3Da%2Bb%257E", Canonicalize(Payload{"k": "a b~"}))
	})
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    string
	}{
		{
			name:    "byte order of keys",
			payload: Payload{"a": "1", "B": "1", "_": "1"},
			want:    "B=1&_=1&a=1",
		},
		{
			name:    "scalars",
			payload: Payload{"i": 42, "f": 1.5, "t": true, "n": json.Number("1.50"), "u": uint8(7)},
			want:    "f=1.5&i=42&n=1.50&t=1&u=7",
		},
		{
			name:    "false renders as zero",
			payload: Payload{"flag": false},
			want:    "flag=0",
		},
		{
			name:    "nil skipped",
			payload: Payload{"a": nil, "b": "x"},
			want:    "b=x",
		},
		{
			name:    "nested map sorted",
			payload: Payload{"a": map[string]any{"y": "2", "x": "1"}},
			want:    "a%5Bx%5D=1&a%5By%5D=2",
		},
		{
			name:    "list uses indexes",
			payload: Payload{"l": []any{"p", "q"}},
			want:    "l%5B0%5D=p&l%5B1%5D=q",
		},
		{
			name:    "string list",
			payload: Payload{"s": []string{"x y"}},
			want:    "s%5B0%5D=x+y",
		},
		{
			name:    "reserved characters",
			payload: Payload{"q": "a&b=c/d"},
			want:    "q=a%26b%3Dc%2Fd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.payload))
		})
	}
}
