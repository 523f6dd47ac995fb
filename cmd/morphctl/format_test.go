package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath_KnownExtensions(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"data.json":    "json",
		"data.yaml":    "yaml",
		"data.yml":     "yaml",
		"data.toml":    "toml",
		"data.csv":     "csv",
		"photo.png":    "png",
		"photo.JPG":    "jpeg",
		"clip.srt":     "srt",
		"cert.pem":     "pem",
	}
	for path, want := range cases {
		got, err := formatFromPath(path)
		require.NoErrorf(t, err, "path %q", path)
		assert.Equalf(t, want, got, "path %q", path)
	}
}

func TestFormatFromPath_UnknownExtensionErrors(t *testing.T) {
	t.Parallel()

	_, err := formatFromPath("data.bin")
	assert.Error(t, err)
}
