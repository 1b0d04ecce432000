package cascade

import "time"

// CacheAdapter is a query-result cache contract a data source can carry in
// DataSourceOptions.Cache. query.Builder does not consult it: every Get
// dispatches to the driver. Caching backends themselves stay out of scope
// per spec.md §1; Cascade only specifies this adapter contract.
type CacheAdapter interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// noopCache is the pass-through default when a data source configures no
// CacheAdapter.
type noopCache struct{}

func (noopCache) Get(string) (any, bool)            { return nil, false }
func (noopCache) Set(string, any, time.Duration) {}

// NewNoopCache returns a CacheAdapter that never hits.
func NewNoopCache() CacheAdapter { return noopCache{} }
