package rendering

import (
	"path/filepath"
	"strings"
)

// ImageFormat describes an output image format: the lowercased file
// extension used by the output path rule, the MIME type for serving the
// file, and the FFmpeg codec that produces it.
type ImageFormat struct {
	Name        string
	Extension   string
	MimeType    string
	FFmpegCodec string
}

var imageFormats = map[string]ImageFormat{
	"PNG":  {Name: "PNG", Extension: "png", MimeType: "image/png", FFmpegCodec: "png"},
	"JPEG": {Name: "JPEG", Extension: "jpg", MimeType: "image/jpeg", FFmpegCodec: "mjpeg"},
	"BMP":  {Name: "BMP", Extension: "bmp", MimeType: "image/bmp", FFmpegCodec: "bmp"},
	"TIFF": {Name: "TIFF", Extension: "tif", MimeType: "image/tiff", FFmpegCodec: "tiff"},
	"WEBP": {Name: "WEBP", Extension: "webp", MimeType: "image/webp", FFmpegCodec: "libwebp"},
}

// LookupFormat resolves a format name (case insensitive) to an ImageFormat.
func LookupFormat(name string) (ImageFormat, bool) {
	format, ok := imageFormats[strings.ToUpper(strings.TrimSpace(name))]
	return format, ok
}

// LookupFormatByExtension resolves an output file path to its ImageFormat
// by the file extension.
func LookupFormatByExtension(path string) (ImageFormat, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, format := range imageFormats {
		if format.Extension == ext {
			return format, true
		}
	}
	return ImageFormat{}, false
}

// SupportedFormats returns the names of all supported output formats.
func SupportedFormats() []string {
	names := make([]string, 0, len(imageFormats))
	for name := range imageFormats {
		names = append(names, name)
	}
	return names
}
