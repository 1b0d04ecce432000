package cascade

import (
	"sync"

	"github.com/warlockjs/cascade/migrate"
)

// Registry is process-wide mutable state (spec.md §5): register/clear must
// be synchronized, and reads return stable snapshots. One package-level
// instance backs the stable entry points in cascade.go; tests construct
// their own with NewRegistry to avoid cross-test interference.
type Registry struct {
	mu          sync.RWMutex
	sources     map[string]*DataSource
	defaultName string
	runners     map[string]*migrate.Runner
	events      *EventBus
}

// NewRegistry returns an empty registry with its own event bus.
func NewRegistry() *Registry {
	return &Registry{
		sources: map[string]*DataSource{},
		runners: map[string]*migrate.Runner{},
		events:  NewEventBus(),
	}
}

var defaultRegistry = NewRegistry()

// Events returns the registry's bus, emitting registered/default-registered/
// connected/disconnected (spec.md §6 "Registry events").
func (r *Registry) Events() *EventBus { return r.events }

// Register adds ds, electing it the default if it is the first source
// registered or Options.Default is set.
func (r *Registry) Register(ds *DataSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[ds.Name]; exists {
		return newConfigError(KindConfigDuplicateName, ds.Name, "data source is already registered")
	}
	r.sources[ds.Name] = ds
	isDefault := ds.Options.Default || r.defaultName == ""
	if isDefault {
		r.defaultName = ds.Name
	}
	r.events.Emit("registered", ds)
	if isDefault {
		r.events.Emit("default-registered", ds)
	}
	if ds.Driver != nil {
		ds.Driver.Events().On("connected", func(payload any) { r.events.Emit("connected", ds) })
		ds.Driver.Events().On("disconnected", func(payload any) { r.events.Emit("disconnected", ds) })
	}
	return nil
}

// Get returns the named data source, or the default one when name is "".
func (r *Registry) Get(name string) (*DataSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defaultName
	}
	if name == "" {
		return nil, newConfigError(KindConfigMissingDataSource, name, "no data source registered")
	}
	ds, ok := r.sources[name]
	if !ok {
		return nil, newConfigError(KindConfigMissingDataSource, name, "no data source named "+name)
	}
	return ds, nil
}

// Clear removes every registered data source and runner. Intended for test
// teardown.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = map[string]*DataSource{}
	r.runners = map[string]*migrate.Runner{}
	r.defaultName = ""
}

// RunnerFor returns (creating if absent) the migration Runner bound to the
// named data source's driver.
func (r *Registry) RunnerFor(name string) (*migrate.Runner, error) {
	ds, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runners[ds.Name]; ok {
		return run, nil
	}
	run := migrate.NewRunner(ds.Driver.MigrationDriver(), ds.Driver.Blueprint(), ds.Driver.RecordStore())
	r.runners[ds.Name] = run
	return run, nil
}
