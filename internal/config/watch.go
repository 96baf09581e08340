package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// FileWatcher polls modification times and triggers a callback on change.
// Directory paths are expanded to their .yaml/.yml entries on every scan, so
// campaign files added while the process runs are picked up too.
type FileWatcher struct {
	paths    []string
	interval time.Duration
	onChange func(string)
	log      zerolog.Logger

	stopCh    chan struct{}
	lastMTime map[string]time.Time
}

// NewFileWatcher creates a watcher over the given files and directories.
func NewFileWatcher(paths []string, interval time.Duration, onChange func(string), log zerolog.Logger) *FileWatcher {
	return &FileWatcher{
		paths:     paths,
		interval:  interval,
		onChange:  onChange,
		log:       log,
		stopCh:    make(chan struct{}),
		lastMTime: make(map[string]time.Time),
	}
}

// Start begins polling in a goroutine.
func (w *FileWatcher) Start() {
	ticker := time.NewTicker(w.interval)
	go func() {
		defer ticker.Stop()
		// prime the mtime cache so preexisting files do not fire
		w.scanAll(true)
		for {
			select {
			case <-ticker.C:
				w.scanAll(false)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher.
func (w *FileWatcher) Stop() {
	close(w.stopCh)
}

func (w *FileWatcher) scanAll(prime bool) {
	for _, p := range w.expand() {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		if !ok {
			w.lastMTime[p] = mt
			if !prime {
				// a file that appeared after startup counts as a change
				w.fire(p)
			}
			continue
		}
		if mt.After(last) {
			w.lastMTime[p] = mt
			if !prime {
				w.fire(p)
			}
		}
	}
}

func (w *FileWatcher) fire(path string) {
	if w.onChange == nil {
		return
	}
	w.log.Debug().Str("path", path).Msg("config file changed")
	w.onChange(path)
}

// expand resolves directory paths into their YAML entries.
func (w *FileWatcher) expand() []string {
	var out []string
	for _, p := range w.paths {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !fi.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch filepath.Ext(e.Name()) {
			case ".yaml", ".yml":
				out = append(out, filepath.Join(p, e.Name()))
			}
		}
	}
	return out
}
