package cascade

// DataSourceOptions are the recognized configuration keys spec.md §6
// enumerates for registerDataSource.
type DataSourceOptions struct {
	Name       string
	Default    bool
	DriverKind string // "relational" or "document"

	Host             string
	Port             int
	Database         string
	User             string
	Password         string
	ConnectionString string

	SSL bool

	Max                     int
	Min                     int
	IdleTimeoutMillis       int
	ConnectionTimeoutMillis int
	ApplicationName         string

	DefaultDeleteStrategy string // "soft" or "trash"
	DefaultTrashTable     string
	ModelDefaults         map[string]any

	// Replicas names read-replica connection strings. It is stored with
	// the data source only: no driver in this module reads it, and every
	// call, read or write, goes to the driver's one connection.
	Replicas []string

	// DryRun is stored with the data source only: no driver reads it.
	// Dry-run mode is switched on through driverpg.Config.DryRun or
	// driverdoc.Config.DryRun when the driver is constructed.
	DryRun bool

	Logger Logger
	Cache  CacheAdapter
}

// withDefaults fills the documented defaults for zero-valued fields
// (spec.md §6: max=10, min=0, idleTimeoutMillis=30000,
// connectionTimeoutMillis=2000, application_name="cascade").
func (o DataSourceOptions) withDefaults() DataSourceOptions {
	if o.Max == 0 {
		o.Max = 10
	}
	if o.IdleTimeoutMillis == 0 {
		o.IdleTimeoutMillis = 30000
	}
	if o.ConnectionTimeoutMillis == 0 {
		o.ConnectionTimeoutMillis = 2000
	}
	if o.ApplicationName == "" {
		o.ApplicationName = "cascade"
	}
	return o
}

// DataSource pairs a named configuration with its connected Driver.
type DataSource struct {
	Name    string
	Options DataSourceOptions
	Driver  Driver
}
