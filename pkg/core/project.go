package core

// MemoryDatabase is the database name that keeps a file-based target in
// memory for the life of the connection.
const MemoryDatabase = ":memory:"

// TargetConfig names the database that holds the nested-set table.
type TargetConfig struct {
	// Type is a registered adapter name: sqlite, duckdb or postgres.
	Type string `koanf:"type" json:"type" yaml:"type"`

	// Database is a file path for sqlite and duckdb, a database name for
	// postgres.
	Database string `koanf:"database" json:"database" yaml:"database"`

	Host     string `koanf:"host" json:"host,omitempty" yaml:"host,omitempty"`
	Port     int    `koanf:"port" json:"port,omitempty" yaml:"port,omitempty"`
	User     string `koanf:"user" json:"user,omitempty" yaml:"user,omitempty"`
	Password string `koanf:"password" json:"-" yaml:"-"`

	// Options carries driver settings such as sslmode, plus isolation,
	// which overrides the adapter's write isolation level.
	Options map[string]string `koanf:"options" json:"options,omitempty" yaml:"options,omitempty"`
}

// IsFileBased reports whether the target stores its data in a local file.
func (t TargetConfig) IsFileBased() bool {
	return t.Type == "sqlite" || t.Type == "duckdb"
}

// IsFile reports whether Database is a path on disk rather than an
// in-memory database.
func (t TargetConfig) IsFile() bool {
	return t.IsFileBased() && t.Database != "" && t.Database != MemoryDatabase
}

// Option returns the named driver option, or "".
func (t TargetConfig) Option(key string) string {
	return t.Options[key]
}
