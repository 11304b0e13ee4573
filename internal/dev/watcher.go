package dev

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// skipDirs are never watched
var skipDirs = []string{"node_modules", "vendor"}

// GenerateFunc runs one generation
type GenerateFunc func(ctx context.Context) error

// WatchOptions configures a Session
type WatchOptions struct {
	Roots      []string      // directories watched recursively
	Files      []string      // single files watched, such as the configuration
	Extensions []string      // file extensions that trigger a run
	Ignore     []string      // generated files, never trigger a run
	Debounce   time.Duration // quiet period before a run
	Hook       *HookRunner   // optional, runs after each successful generation
}

// Session regenerates whenever a watched source changes. Runs are serial;
// changes that arrive during a run schedule one more run.
type Session struct {
	generate GenerateFunc
	opts     WatchOptions
	watcher  *fsnotify.Watcher
	ignore   map[string]bool
	files    map[string]bool
}

// NewSession creates a watch session
func NewSession(generate GenerateFunc, opts WatchOptions) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}

	s := &Session{
		generate: generate,
		opts:     opts,
		ignore:   make(map[string]bool, len(opts.Ignore)),
		files:    make(map[string]bool, len(opts.Files)),
	}
	for _, p := range opts.Ignore {
		s.ignore[absPath(p)] = true
	}
	for _, p := range opts.Files {
		s.files[absPath(p)] = true
	}
	return s
}

// Run generates once, then watches until ctx is cancelled. Generation errors
// are logged and do not stop the session.
func (s *Session) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()
	s.watcher = watcher

	for _, root := range s.opts.Roots {
		if err := s.addDirectoryRecursively(root); err != nil {
			return err
		}
	}
	for file := range s.files {
		// fsnotify loses single-file watches on atomic saves; watch the directory
		if err := watcher.Add(filepath.Dir(file)); err != nil {
			slog.Warn("could not watch", "path", file, "err", err)
		}
	}

	s.runOnce(ctx)

	timer := time.NewTimer(s.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := s.addDirectoryRecursively(event.Name); err != nil {
						slog.Warn("could not watch new directory", "path", event.Name, "err", err)
					}
					continue
				}
			}
			if s.shouldTrigger(event) {
				slog.Debug("change detected", "path", event.Name, "op", event.Op.String())
				timer.Reset(s.opts.Debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("file watcher error", "err", err)

		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Session) runOnce(ctx context.Context) {
	if err := s.generate(ctx); err != nil {
		if ctx.Err() == nil {
			slog.Error("generation failed", "err", err)
		}
		return
	}
	if s.opts.Hook != nil {
		if err := s.opts.Hook.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("after_generate hook failed", "err", err)
		}
	}
}

// shouldTrigger reports whether an event is a change to a watched source
func (s *Session) shouldTrigger(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	path := absPath(event.Name)
	if s.ignore[path] {
		return false
	}
	if s.files[path] {
		return true
	}

	base := filepath.Base(path)
	// editor swap files and our own temporary outputs
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if len(s.opts.Roots) == 0 {
		return false
	}
	return slices.Contains(s.opts.Extensions, filepath.Ext(base))
}

// addDirectoryRecursively adds a directory and all its subdirectories to the
// watcher. fsnotify does not watch subdirectories by itself.
func (s *Session) addDirectoryRecursively(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || slices.Contains(skipDirs, name)) {
			return filepath.SkipDir
		}
		if err := s.watcher.Add(path); err != nil {
			slog.Warn("could not watch", "path", path, "err", err)
		} else {
			slog.Debug("watching directory", "path", path)
		}
		return nil
	})
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
