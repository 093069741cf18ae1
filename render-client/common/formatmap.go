package common

import (
	"fmt"
	"strings"
)

// FormatAliasMap maps the names users commonly type to the canonical format
// names the server accepts.
var FormatAliasMap = map[string]string{
	"png":  "PNG",
	"jpg":  "JPEG",
	"jpeg": "JPEG",
	"bmp":  "BMP",
	"tif":  "TIFF",
	"tiff": "TIFF",
	"webp": "WEBP",
}

// formatExtensions maps canonical format names to the file extension used
// when saving fetched stills.
var formatExtensions = map[string]string{
	"PNG":  "png",
	"JPEG": "jpg",
	"BMP":  "bmp",
	"TIFF": "tif",
	"WEBP": "webp",
}

// mimeExtensions maps content types reported by the server to file
// extensions, for fetches where only the MIME type is known.
var mimeExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/bmp":  "bmp",
	"image/tiff": "tif",
	"image/webp": "webp",
}

// NormalizeFormat resolves a user-supplied format name to its canonical form
func NormalizeFormat(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("format name cannot be empty")
	}

	canonical, ok := FormatAliasMap[strings.ToLower(trimmed)]
	if !ok {
		return "", fmt.Errorf("unknown image format: %s", name)
	}
	return canonical, nil
}

// ExtensionFor returns the file extension for a canonical format name
func ExtensionFor(format string) (string, bool) {
	extension, ok := formatExtensions[strings.ToUpper(strings.TrimSpace(format))]
	return extension, ok
}

// ExtensionForMimeType returns the file extension for a content type,
// ignoring any parameters like charset
func ExtensionForMimeType(mimeType string) (string, bool) {
	base := strings.TrimSpace(mimeType)
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	extension, ok := mimeExtensions[strings.ToLower(base)]
	return extension, ok
}
