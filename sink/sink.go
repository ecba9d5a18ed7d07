package sink

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/tideline-io/metricsink/store/model"
)

// WriteFunc persists one value list to one target.
type WriteFunc func(ctx context.Context, ds []model.DataSource, vl *model.ValueList) error

// Registry holds the registered write callbacks, one per configured target,
// and fans each incoming batch out to all of them. Construct one per process
// and pass it around; there is no package-level instance.
type Registry struct {
	mu      sync.RWMutex
	writers map[string]WriteFunc
}

func NewRegistry() *Registry {
	return &Registry{writers: make(map[string]WriteFunc)}
}

func (r *Registry) Register(name string, fn WriteFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.writers[name]; ok {
		return fmt.Errorf("write callback %q already registered", name)
	}
	r.writers[name] = fn
	log.Info("registered write callback", zap.String("name", name))
	return nil
}

// Names returns the registered callback names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.writers))
	for name := range r.writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch hands vl to every registered callback. A failing target is logged
// and skipped so it cannot block the others; Dispatch only reports an error
// when every target failed.
func (r *Registry) Dispatch(ctx context.Context, ds []model.DataSource, vl *model.ValueList) error {
	r.mu.RLock()
	writers := make(map[string]WriteFunc, len(r.writers))
	for name, fn := range r.writers {
		writers[name] = fn
	}
	r.mu.RUnlock()

	if len(writers) == 0 {
		return nil
	}

	failed := 0
	for name, fn := range writers {
		if err := fn(ctx, ds, vl); err != nil {
			log.Warn("write callback failed", zap.String("name", name), zap.Error(err))
			failed++
		}
	}
	if failed == len(writers) {
		return fmt.Errorf("all %d write callbacks failed", failed)
	}
	return nil
}
