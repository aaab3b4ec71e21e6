package widget

import (
	"log/slog"
	"sort"
	"time"

	"golang.org/x/exp/maps"

	"github.com/fbdash/fbdash/internal/consts"
	"github.com/fbdash/fbdash/internal/logx"
)

// DefaultRetryInterval is the minimum spacing between sweeps over the
// failed set.
const DefaultRetryInterval = 60 * time.Second

// Registry tracks loaded and failed widget modules. It is confined to
// the control loop goroutine; only the registry mutates the two sets.
type Registry struct {
	loaded        map[string]Renderable
	failed        map[string]error
	retryInterval time.Duration
	lastRetry     time.Time
	logger        *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		loaded:        make(map[string]Renderable),
		failed:        make(map[string]error),
		retryInterval: DefaultRetryInterval,
		logger:        logger,
	}
}

// SetRetryInterval overrides the failed-module retry spacing.
func (r *Registry) SetRetryInterval(d time.Duration) {
	if r == nil || d <= 0 {
		return
	}
	r.retryInterval = d
}

// Load resolves the module factory registered under name and
// instantiates it. On success the module moves from the failed set to
// the loaded set; on any failure the cause is recorded in the failed
// set and a LoadError returned.
func (r *Registry) Load(name string) error {
	if r == nil {
		return newLoadError(name, consts.ErrNilReceiver)
	}
	factory, ok := RegisteredFactory(name)
	if !ok {
		return r.markFailed(name, consts.ErrModuleUnknown)
	}
	mod, err := factory()
	if err != nil {
		return r.markFailed(name, err)
	}
	if mod == nil {
		return r.markFailed(name, consts.ErrModuleNoSurface)
	}
	r.loaded[name] = mod
	delete(r.failed, name)
	logx.Info(`module loaded`, r.logger, `module`, name)
	return nil
}

func (r *Registry) markFailed(name string, cause error) error {
	err := newLoadError(name, cause)
	r.failed[name] = cause
	logx.Error(`module load failed`, r.logger, `module`, name, `cause`, cause)
	return err
}

// LoadAll loads every named module and returns the success count.
func (r *Registry) LoadAll(names []string) int {
	if r == nil {
		return 0
	}
	loaded := 0
	for _, name := range names {
		if err := r.Load(name); err == nil {
			loaded++
		}
	}
	return loaded
}

// RetryFailed re-attempts every failed module, at most once per retry
// interval. It returns the number of modules recovered by this sweep.
func (r *Registry) RetryFailed(now time.Time) int {
	if r == nil || len(r.failed) == 0 {
		return 0
	}
	if now.Sub(r.lastRetry) < r.retryInterval {
		return 0
	}
	r.lastRetry = now
	recovered := 0
	names := maps.Keys(r.failed)
	sort.Strings(names)
	for _, name := range names {
		if err := r.Load(name); err == nil {
			recovered++
		}
	}
	return recovered
}

// Get returns the loaded module registered under name.
func (r *Registry) Get(name string) (Renderable, bool) {
	if r == nil {
		return nil, false
	}
	mod, ok := r.loaded[name]
	return mod, ok
}

// Loaded lists the names of all loaded modules, sorted.
func (r *Registry) Loaded() []string {
	if r == nil {
		return nil
	}
	names := maps.Keys(r.loaded)
	sort.Strings(names)
	return names
}

// Failed lists the names of all failed modules, sorted.
func (r *Registry) Failed() []string {
	if r == nil {
		return nil
	}
	names := maps.Keys(r.failed)
	sort.Strings(names)
	return names
}
