package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSafe(t *testing.T) {
	require.True(t, IsSafe("hello world"))
	require.True(t, IsSafe("This is a test script for video generation"))

	for _, text := range []string{
		"<script>alert(1)</script>",
		"<SCRIPT src=x>",
		"click javascript:alert(1)",
		`<img src=x onerror = "alert(1)">`,
		"data:text/html;base64,xyz",
		"VBScript:msgbox",
		"<iframe src=x>",
		"<object data=x>",
		"<embed src=x>",
	} {
		require.False(t, IsSafe(text), text)
	}
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "..etcpasswd", SanitizeFilename("../etc/passwd"))
	require.Equal(t, "myvideo.mp4", SanitizeFilename(`my<video>?.mp4`))

	long := strings.Repeat("a", 300) + ".mp4"
	got := SanitizeFilename(long)
	require.Len(t, got, 255)
	require.True(t, strings.HasSuffix(got, ".mp4"))
}

func TestSanitizeFilenameIdempotent(t *testing.T) {
	inputs := []string{
		"plain.txt",
		`a/b\c:d*e?f"g<h>i|j.wav`,
		strings.Repeat("é", 200) + ".mp4",
		strings.Repeat("x", 400),
		"." + strings.Repeat("y", 300),
		"",
	}
	for _, in := range inputs {
		once := SanitizeFilename(in)
		require.Equal(t, once, SanitizeFilename(once))
		require.LessOrEqual(t, len(once), 255)
	}
}

func TestGenerateSecureFilename(t *testing.T) {
	a, err := GenerateSecureFilename("../../holiday.MP4")
	require.NoError(t, err)
	b, err := GenerateSecureFilename("../../holiday.MP4")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.True(t, strings.HasSuffix(a, ".mp4"))
	require.NotContains(t, a, "holiday")
	require.NotContains(t, a, "/")
}
