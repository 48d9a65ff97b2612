package content

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RuleSet holds the current Rules and can hot-reload them from a file.
type RuleSet struct {
	current atomic.Pointer[Rules]
	path    string
	logger  *zap.Logger
}

// NewRuleSet starts from defaults, or from path when it is non-empty.
func NewRuleSet(path string, logger *zap.Logger) (*RuleSet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rs := &RuleSet{path: path, logger: logger.Named("rules")}

	rules := DefaultRules()
	if path != "" {
		loaded, err := LoadRules(path)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	rs.current.Store(&rules)
	return rs, nil
}

// Current returns the rules new page contexts should use.
func (rs *RuleSet) Current() Rules {
	return *rs.current.Load()
}

// Watch reloads the rules file whenever it is written, until ctx ends.
// A file that fails to parse leaves the previous rules in place.
func (rs *RuleSet) Watch(ctx context.Context) error {
	if rs.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create rules watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(rs.path)); err != nil {
		return fmt.Errorf("watch rules dir: %w", err)
	}
	target := filepath.Clean(rs.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			rs.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			rs.logger.Warn("Rules watcher error", zap.Error(err))
		}
	}
}

func (rs *RuleSet) reload() {
	rules, err := LoadRules(rs.path)
	if err != nil {
		rs.logger.Warn("Keeping previous rules", zap.String("path", rs.path), zap.Error(err))
		return
	}
	rs.current.Store(&rules)
	rs.logger.Info("Rules reloaded", zap.String("path", rs.path))
}
