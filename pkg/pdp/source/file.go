package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/xacmlcore/pkg/pdp"
	"mercator-hq/xacmlcore/pkg/xacml/parser"
)

// DefaultDebounce is the quiet period after a file change before a change
// event is sent.
const DefaultDebounce = 100 * time.Millisecond

// FileSource loads rule sets from YAML documents on disk.
type FileSource struct {
	path     string
	parser   *parser.Parser
	logger   *slog.Logger
	debounce time.Duration
}

// NewFileSource creates a file-based rule source. The path can be a single
// document or a directory, in which case every .yaml and .yml file below it
// is loaded in lexical order. Hidden files and directories are skipped.
func NewFileSource(path string, p *parser.Parser, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:     path,
		parser:   p,
		logger:   logger,
		debounce: DefaultDebounce,
	}
}

// WithDebounce sets the quiet period for Watch.
func (s *FileSource) WithDebounce(d time.Duration) *FileSource {
	s.debounce = d
	return s
}

// String implements pdp.RuleSource.
func (s *FileSource) String() string {
	return "file:" + s.path
}

// Load parses every document. A single invalid document fails the whole
// load.
func (s *FileSource) Load(ctx context.Context) ([]*pdp.RuleSet, error) {
	paths, err := s.Files()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		s.logger.Warn("no rule files found", "path", s.path)
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ruleSets, err := s.parser.ParseMulti(paths)
	if err != nil {
		return nil, err
	}

	for _, rs := range ruleSets {
		s.logger.Debug("loaded rule file",
			"path", rs.Source,
			"rule_set", rs.Name,
			"rule_count", len(rs.Rules),
		)
	}
	return ruleSets, nil
}

// Files lists the rule documents of the source in load order.
func (s *FileSource) Files() ([]string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}
	if !info.IsDir() {
		return []string{s.path}, nil
	}

	var paths []string
	err = filepath.WalkDir(s.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != s.path && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && isRuleFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %q: %w", s.path, err)
	}
	return paths, nil
}

// Watch reports changes to rule files. Bursts of file system events are
// collapsed into one event after the debounce period. A single-file source
// watches the file's directory so editors that replace the file are seen.
func (s *FileSource) Watch(ctx context.Context) (<-chan pdp.SourceEvent, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if info.IsDir() {
		err = s.addDirectories(watcher, s.path)
	} else {
		err = watcher.Add(filepath.Dir(s.path))
	}
	if err != nil {
		watcher.Close()
		return nil, err
	}

	events := make(chan pdp.SourceEvent)
	go s.run(ctx, watcher, info.IsDir(), events)

	s.logger.Info("rule file watcher started",
		"path", s.path,
		"debounce_ms", s.debounce.Milliseconds(),
	)
	return events, nil
}

// run forwards debounced events until ctx is cancelled.
func (s *FileSource) run(ctx context.Context, watcher *fsnotify.Watcher, isDir bool, events chan<- pdp.SourceEvent) {
	defer close(events)
	defer watcher.Close()

	timer := time.NewTimer(s.debounce)
	timer.Stop()
	defer timer.Stop()

	var pending *pdp.SourceEvent
	send := func(ev pdp.SourceEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if isDir && ev.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !isHidden(ev.Name) {
					if err := s.addDirectories(watcher, ev.Name); err != nil {
						s.logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if !s.relevant(ev, isDir) {
				continue
			}
			s.logger.Debug("rule file event", "path", ev.Name, "op", ev.Op.String())
			pending = &pdp.SourceEvent{Type: eventType(ev.Op), Path: ev.Name}
			timer.Reset(s.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if !send(pdp.SourceEvent{Type: pdp.SourceEventError, Error: err}) {
				return
			}

		case <-timer.C:
			if pending == nil {
				continue
			}
			ev := *pending
			pending = nil
			if !send(ev) {
				return
			}
		}
	}
}

// relevant reports whether an event concerns a rule file of this source.
func (s *FileSource) relevant(ev fsnotify.Event, isDir bool) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if !isDir {
		return filepath.Clean(ev.Name) == filepath.Clean(s.path)
	}
	return isRuleFile(ev.Name) && !isHidden(ev.Name)
}

// addDirectories watches dir and its non-hidden subdirectories.
func (s *FileSource) addDirectories(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		return nil
	})
}

func eventType(op fsnotify.Op) pdp.SourceEventType {
	switch {
	case op.Has(fsnotify.Create):
		return pdp.SourceEventCreated
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return pdp.SourceEventDeleted
	default:
		return pdp.SourceEventModified
	}
}

func isRuleFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
