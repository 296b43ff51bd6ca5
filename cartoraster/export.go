package cartoraster

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// FormatOf returns the image format matching the extension of path,
// or "png" when the extension is unknown.
func FormatOf(path string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "jpg", "jpeg":
		return "jpeg"
	case "tif", "tiff":
		return "tiff"
	case "bmp":
		return "bmp"
	default:
		return "png"
	}
}

// Encode writes img to w in the given format:
// png, jpeg (jpeg85 sets the quality), tiff or bmp.
func Encode(w io.Writer, img image.Image, format string) error {
	format = strings.ToLower(format)
	switch {
	case format == "png":
		return png.Encode(w, img)
	case format == "jpg" || strings.HasPrefix(format, "jpeg"):
		quality := jpeg.DefaultQuality
		if q := strings.TrimPrefix(format, "jpeg"); q != "" {
			if _, err := fmt.Sscanf(q, "%d", &quality); err != nil || quality < 1 || quality > 100 {
				return fmt.Errorf("cartoraster: invalid jpeg quality in format %q", format)
			}
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case format == "tiff" || format == "tif":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case format == "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("cartoraster: unsupported image format %q", format)
	}
}

// SaveToFile encodes img into the file at path. An empty format
// is deduced from the file extension.
func SaveToFile(img image.Image, path, format string) error {
	if format == "" {
		format = FormatOf(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err = Encode(w, img, format); err == nil {
		err = w.Flush()
	}
	if errC := f.Close(); err == nil {
		err = errC
	}
	return err
}
