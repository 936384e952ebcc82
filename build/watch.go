package build

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/mogaika/hyperbola_tools/resources"
)

// Watch reruns d whenever something under its source root changes, at
// most once per debounce window. done is called after every rerun. Watch
// blocks until ctx is cancelled.
func Watch(ctx context.Context, d *Driver, debounce time.Duration, done func(*Report, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrapf(err, "Failed to create watcher")
	}
	defer w.Close()

	if err := watchRecursive(w, d.SourceRoot, d.OutputRoot); err != nil {
		return err
	}
	d.log.Info("watching for changes", "dir", d.SourceRoot)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			if d.inOutput(e.Name) {
				continue
			}
			if e.Op&fsnotify.Create != 0 {
				if st, err := os.Stat(e.Name); err == nil && st.IsDir() {
					if err := watchRecursive(w, e.Name, d.OutputRoot); err != nil {
						d.log.Warn("cannot watch new directory", "dir", e.Name, "err", err)
					}
				}
			}
			d.log.Debug("change", "file", e.Name, "op", e.Op)
			fire = time.After(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			d.log.Error("watcher error", "err", err)

		case <-fire:
			fire = nil
			rep, err := d.Run(ctx)
			if done != nil {
				done(rep, err)
			}
		}
	}
}

// watchRecursive adds root and all directories under it, except skip.
func watchRecursive(w *fsnotify.Watcher, root, skip string) error {
	return filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			if path != root && resources.Contains(skip, path) && resources.Contains(path, skip) {
				return fs.SkipDir
			}
			if err := w.Add(path); err != nil {
				return errors.Wrapf(err, "Failed to watch %q", path)
			}
		}
		return nil
	})
}

// inOutput is true for changes inside an output tree nested in the source tree.
func (d *Driver) inOutput(path string) bool {
	return resources.Contains(d.OutputRoot, path) && !resources.Contains(d.OutputRoot, d.SourceRoot)
}
