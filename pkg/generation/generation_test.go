package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{"Sure! Here it is:\n```json\n{\"a\":{\"b\":2}}\n```\nEnjoy", `{"a":{"b":2}}`, true},
		{"no json here", "", false},
		{"} backwards {", "", false},
	}

	for _, tc := range cases {
		got, ok := ExtractJSONObject(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
