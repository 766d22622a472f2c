package server

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// installAutoReload watches the directories holding paths and reloads
// once changes to any of those files settle for the debounce window.
// Directories are watched instead of the files so atomic replacements
// (write to tmp, rename over) are seen.
func (s *Server) installAutoReload(paths []string) (io.Closer, error) {
	if !s.cfg.AutoReload.Enabled {
		return nil, nil
	}
	files := watchedFiles(paths)
	if len(files) == 0 {
		return nil, nil
	}
	debounce := time.Duration(s.cfg.AutoReload.DebounceMs) * time.Millisecond

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	added := 0
	for _, dir := range watchedDirs(files) {
		if fi, statErr := os.Stat(dir); statErr != nil || !fi.IsDir() {
			log.Printf("config auto-reload skip missing dir: dir=%q", dir)
			continue
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
		added++
	}
	if added == 0 {
		_ = watcher.Close()
		return nil, nil
	}

	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		resetTimer := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			timerC = timer.C
		}

		for {
			select {
			case <-stopCh:
				if timer != nil {
					timer.Stop()
				}
				return
			case <-timerC:
				timerC = nil
				_ = s.Reload(context.Background(), "auto")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("config auto-reload watcher error: %v", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if shouldTriggerReload(evt, files) {
					resetTimer()
				}
			}
		}
	}()

	log.Printf("config auto-reload enabled: files=%s debounce_ms=%d", strings.Join(sortedKeys(files), ","), s.cfg.AutoReload.DebounceMs)
	return closerFunc(func() error {
		close(stopCh)
		_ = watcher.Close()
		<-doneCh
		return nil
	}), nil
}

// shouldTriggerReload reports whether evt touches one of the watched files.
func shouldTriggerReload(evt fsnotify.Event, files map[string]bool) bool {
	if strings.TrimSpace(evt.Name) == "" {
		return false
	}
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return files[cleanAbs(evt.Name)]
}

func watchedFiles(paths []string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		out[cleanAbs(p)] = true
	}
	return out
}

func watchedDirs(files map[string]bool) []string {
	seen := make(map[string]bool, len(files))
	for f := range files {
		seen[filepath.Dir(f)] = true
	}
	return sortedKeys(seen)
}

func cleanAbs(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
