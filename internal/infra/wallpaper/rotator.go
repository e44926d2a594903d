package wallpaper

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jgreely/genaistuff/internal/ports"
)

// playlist cycles one display through the images of one directory.
type playlist struct {
	display int
	dir     string
	images  []string
	index   int
	started bool
}

// next returns the current image and advances. On wrap-around the list
// is reshuffled when shuffling is on, so cycles differ.
func (p *playlist) next(shuffle bool, rng *rand.Rand) string {
	img := p.images[p.index]
	p.index = (p.index + 1) % len(p.images)
	if p.index == 0 && shuffle && p.started {
		rng.Shuffle(len(p.images), func(i, j int) {
			p.images[i], p.images[j] = p.images[j], p.images[i]
		})
	}
	p.started = true
	return img
}

// reload replaces the playlist contents after its directory changed.
func (p *playlist) reload(shuffle bool, rng *rand.Rand) error {
	images, err := ScanDir(p.dir)
	if err != nil {
		return err
	}
	if shuffle {
		rng.Shuffle(len(images), func(i, j int) {
			images[i], images[j] = images[j], images[i]
		})
	}
	p.images = images
	p.index = 0
	return nil
}

// Rotator changes wallpapers on one or more displays at a fixed
// interval, reloading a directory's playlist when its contents change.
type Rotator struct {
	setter    ports.WallpaperSetter
	interval  time.Duration
	shuffle   bool
	playlists []*playlist
	logger    *slog.Logger
	rng       *rand.Rand
}

// Option configures a Rotator.
type Option func(*Rotator)

// WithInterval sets the delay between wallpaper changes (default 30s).
func WithInterval(d time.Duration) Option {
	return func(r *Rotator) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithSorted disables shuffling; images rotate in name order.
func WithSorted() Option {
	return func(r *Rotator) { r.shuffle = false }
}

// WithLogger sets the logger (discard by default).
func WithLogger(l *slog.Logger) Option {
	return func(r *Rotator) { r.logger = l }
}

// WithRand sets the shuffle source, for reproducible tests.
func WithRand(rng *rand.Rand) Option {
	return func(r *Rotator) { r.rng = rng }
}

// New builds a Rotator driving the given displays. Each display takes
// the directory at its position in dirs; when dirs is shorter, the last
// directory is reused.
func New(setter ports.WallpaperSetter, dirs []string, displays []int, opts ...Option) (*Rotator, error) {
	r := &Rotator{
		setter:   setter,
		interval: 30 * time.Second,
		shuffle:  true,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for i, display := range displays {
		dir := dirs[min(i, len(dirs)-1)]
		p := &playlist{display: display, dir: dir}
		if err := p.reload(r.shuffle, r.rng); err != nil {
			return nil, err
		}
		r.playlists = append(r.playlists, p)
		r.logger.Info("wallpaper.playlist", "display", display+1, "dir", dir, "images", len(p.images))
	}
	return r, nil
}

// Run rotates until the context is canceled. The first change happens
// immediately.
func (r *Rotator) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, p := range r.playlists {
		if err := watcher.Add(p.dir); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.rotate(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.rotate(ctx)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				r.reloadDir(ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("wallpaper.watch", "error", err)
		}
	}
}

func (r *Rotator) rotate(ctx context.Context) {
	for _, p := range r.playlists {
		img := p.next(r.shuffle, r.rng)
		r.logger.Debug("wallpaper.set", "display", p.display+1, "image", img)
		if err := r.setter.SetWallpaper(ctx, img, p.display); err != nil {
			r.logger.Warn("wallpaper.set", "display", p.display+1, "error", err)
		}
	}
}

// withinDir reports whether path sits directly inside dir.
func withinDir(path, dir string) bool {
	return filepath.Dir(filepath.Clean(path)) == filepath.Clean(dir)
}

// reloadDir refreshes every playlist fed by the directory containing
// the changed path.
func (r *Rotator) reloadDir(changed string) {
	for _, p := range r.playlists {
		if !withinDir(changed, p.dir) {
			continue
		}
		if err := p.reload(r.shuffle, r.rng); err != nil {
			r.logger.Warn("wallpaper.reload", "dir", p.dir, "error", err)
			continue
		}
		r.logger.Info("wallpaper.reload", "dir", p.dir, "images", len(p.images))
	}
}
