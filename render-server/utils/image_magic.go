package utils

import (
	"bytes"
	"fmt"
)

// ImageMagicBytes contains the magic byte signatures of the supported output
// image formats
var ImageMagicBytes = map[string][]byte{
	"png":     {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, // PNG
	"jpeg":    {0xFF, 0xD8, 0xFF},                               // JPEG/JFIF
	"bmp":     {0x42, 0x4D},                                     // BMP
	"tiff-le": {0x49, 0x49, 0x2A, 0x00},                         // TIFF little-endian
	"tiff-be": {0x4D, 0x4D, 0x00, 0x2A},                         // TIFF big-endian
}

// ImageMimeTypes maps detected formats to their MIME types
var ImageMimeTypes = map[string]string{
	"png":     "image/png",
	"jpeg":    "image/jpeg",
	"bmp":     "image/bmp",
	"tiff-le": "image/tiff",
	"tiff-be": "image/tiff",
	"webp":    "image/webp",
}

// IsImageFile checks if the provided data appears to be an image file
// by examining the magic bytes at the beginning of the file
func IsImageFile(data []byte) (bool, string, error) {
	if len(data) < 12 {
		return false, "", fmt.Errorf("data too short to determine file type")
	}

	for format, magic := range ImageMagicBytes {
		if len(data) >= len(magic) && bytes.Equal(data[:len(magic)], magic) {
			return true, format, nil
		}
	}

	// WebP sits in a RIFF container: "RIFF" <size> "WEBP"
	if bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return true, "webp", nil
	}

	return false, "", nil
}

// MimeTypeFor returns the MIME type for a detected image format, defaulting
// to application/octet-stream
func MimeTypeFor(format string) string {
	if mime, ok := ImageMimeTypes[format]; ok {
		return mime
	}
	return "application/octet-stream"
}
