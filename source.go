package wavecollapse

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var sourceExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsSourceImage reports whether path has a decodable image extension.
func IsSourceImage(path string) bool {
	return sourceExtensions[strings.ToLower(filepath.Ext(path))]
}

// ReadSource decodes the image at path.
func ReadSource(path string) (image.Image, error) {
	if !IsSourceImage(path) {
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidSourceFormat, filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSourceFormat, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidSourceFormat, path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidSourceFormat, path)
	}
	return img, nil
}

// ReadSourceFolder decodes every image file in dir in lexical order.
// Subdirectories and other files are skipped.
func ReadSourceFolder(dir string) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSourceFormat, err)
	}
	var out []image.Image
	for _, e := range entries {
		if e.IsDir() || !IsSourceImage(e.Name()) {
			continue
		}
		img, err := ReadSource(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", ErrEmptyTileSet, dir)
	}
	return out, nil
}
