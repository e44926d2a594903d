package ports

import "context"

// WallpaperSetter applies an image file as the wallpaper of one display
// (0-based index).
type WallpaperSetter interface {
	SetWallpaper(ctx context.Context, path string, display int) error
}

// DisplayCounter reports how many displays are connected.
type DisplayCounter interface {
	DisplayCount(ctx context.Context) (int, error)
}
