package synth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"strict", ` [1, 2] `, `[1, 2]`},
		{"fence", "Sure!\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"bare fence", "```\n[true]\n```", `[true]`},
		{"embedded", `Result: [{"a": "x ] y"}] hope that helps`, `[{"a": "x ] y"}]`},
		{"nested", `noise {"a": {"b": [1, {"c": 2}]}} tail`, `{"a": {"b": [1, {"c": 2}]}}`},
		{"garbage", `no json at all`, ``},
		{"unbalanced", `[1, 2`, ``},
		{"empty", `   `, ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractJSON(tc.raw)
			if tc.want == "" {
				require.Nil(t, got)
				return
			}
			require.Equal(t, tc.want, string(got))
		})
	}
}

func TestDecodeList(t *testing.T) {
	type item struct {
		N int `json:"n"`
	}

	got, ok := decodeList[item](`[{"n":1},{"n":2}]`)
	require.True(t, ok)
	require.Equal(t, []item{{1}, {2}}, got)

	got, ok = decodeList[item](`{"items":[{"n":3}]}`)
	require.True(t, ok)
	require.Equal(t, []item{{3}}, got)

	got, ok = decodeList[item](`here: {"n":4}`)
	require.True(t, ok)
	require.Equal(t, []item{{4}}, got)

	_, ok = decodeList[item](`"just a string"`)
	require.False(t, ok)

	_, ok = decodeList[item](`nothing`)
	require.False(t, ok)
}
