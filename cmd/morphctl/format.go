package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

// extensionFormats maps a lowercase file extension (without the leading
// dot) to the format property value a workflow.Source should be labeled
// with, mirroring cambium-cli's extension sniffing in its convert
// command.
var extensionFormats = map[string]string{
	"json": "json",
	"yaml": "yaml",
	"yml":  "yaml",
	"toml": "toml",
	"csv":  "csv",
	"png":  "png",
	"jpg":  "jpeg",
	"jpeg": "jpeg",
	"gif":  "gif",
	"bmp":  "bmp",
	"tif":  "tiff",
	"tiff": "tiff",
	"srt":  "srt",
	"vtt":  "vtt",
	"pem":  "pem",
	"der":  "der",
}

// formatFromPath infers a format from path's extension.
func formatFromPath(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	format, ok := extensionFormats[ext]
	if !ok {
		return "", fmt.Errorf("cannot infer format from extension %q of %q; pass --from or --to explicitly", ext, path)
	}
	return format, nil
}
