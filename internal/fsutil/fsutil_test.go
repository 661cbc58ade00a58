package fsutil

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Trip 2024", "Trip 2024"},
		{"photo_01.jpg", "photo_01.jpg"},
		{"a/b\\c", "abc"},
		{"", "unnamed"},
		{".", "unnamed"},
		{"..", "unnamed"},
		{"///", "unnamed"},
		{"<script>", "script"},
		{"名前 2024", "名前 2024"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Sanitize(c.in), "input %q", c.in)
	}
}

func TestSanitize_NeverEscapes(t *testing.T) {
	inputs := []string{
		"../../etc/passwd",
		"..\\..\\windows",
		"%2e%2e/%2e%2e/",
		"a\x00b",
		strings.Repeat("../", 50),
	}
	for _, in := range inputs {
		got := Sanitize(in)
		require.NotContains(t, got, "/", "input %q", in)
		require.NotContains(t, got, "\\", "input %q", in)
		require.NotEqual(t, "", got)
		require.NotEqual(t, ".", got)
		require.NotEqual(t, "..", got)
	}
}

func TestGenName(t *testing.T) {
	re := regexp.MustCompile(`^\d+_\d{4}\.jpg$`)
	for i := 0; i < 20; i++ {
		require.Regexp(t, re, GenName("holiday.jpg"))
	}

	// No extension on the original leaves none on the result.
	require.Regexp(t, regexp.MustCompile(`^\d+_\d{4}$`), GenName("holiday"))
}
