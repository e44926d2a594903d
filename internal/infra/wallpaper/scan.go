package wallpaper

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jgreely/genaistuff/internal/domain"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".tiff": true,
	".tif":  true,
	".heic": true,
}

// ScanDir returns the absolute paths of the image files directly inside
// dir, sorted by name. Subdirectories are not descended.
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.OpError{Op: "wallpaper.scan", Kind: domain.KindNotFound, Path: dir, Err: err}
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, &domain.OpError{Op: "wallpaper.scan", Kind: domain.KindExecution, Path: dir, Err: err}
		}
		images = append(images, abs)
	}
	if len(images) == 0 {
		return nil, &domain.OpError{
			Op:   "wallpaper.scan",
			Kind: domain.KindNotFound,
			Path: dir,
			Err:  fmt.Errorf("no image files found"),
		}
	}
	sort.Strings(images)
	return images, nil
}
