// Package config loads and validates blup configuration.
//
// Two file formats are accepted: the aurweb-style INI file with [database]
// and [aurblup] sections, and YAML with the same keys. Files ending in .yaml
// or .yml are read as YAML. Command-line overrides are applied on top and
// the result is checked against an embedded CUE schema.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable and default path consulted when no --config is given.
const (
	EnvConfig   = "BLUP_CONFIG"
	DefaultPath = "/etc/blup/config"
)

// Database backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Defaults for optional keys.
const (
	DefaultTable    = "PackageBlacklist"
	DefaultStrategy = "incremental"
	DefaultDBPath   = "/var/cache/blup"
	DefaultTimeout  = 60 * time.Second
)

// DefaultInclude lists the package record fields blacklisted by default.
var DefaultInclude = []string{"name", "replaces"}

// Config is the resolved configuration.
type Config struct {
	Database Database `yaml:"database" json:"database"`
	Sync     Sync     `yaml:"aurblup" json:"aurblup"`
}

// Database selects and addresses the blacklist table.
type Database struct {
	Backend string `yaml:"backend" json:"backend"`
	// Name is the SQLite file path or the Postgres database name.
	Name     string `yaml:"name" json:"name"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Socket   string `yaml:"socket" json:"socket"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
	Table    string `yaml:"table" json:"table"`
}

// Sync describes where repository sync databases come from.
type Sync struct {
	DBPath   string        `yaml:"db-path" json:"db_path"`
	SyncDBs  []string      `yaml:"sync-dbs" json:"sync_dbs"`
	Server   string        `yaml:"server" json:"server"`
	Servers  []string      `yaml:"servers" json:"servers"`
	Include  []string      `yaml:"include" json:"include"`
	Fold     bool          `yaml:"fold-unicode" json:"fold_unicode"`
	Strategy string        `yaml:"strategy" json:"strategy"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// ResolvePath picks the configuration file: flag, then $BLUP_CONFIG, then
// DefaultPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env
	}
	return DefaultPath
}

// ApplyDefaults fills unset optional keys.
func (c *Config) ApplyDefaults() {
	if c.Database.Backend == "" {
		c.Database.Backend = BackendSQLite
	}
	if c.Database.Table == "" {
		c.Database.Table = DefaultTable
	}
	if c.Sync.DBPath == "" {
		c.Sync.DBPath = DefaultDBPath
	}
	if len(c.Sync.Include) == 0 {
		c.Sync.Include = append([]string(nil), DefaultInclude...)
	}
	if c.Sync.Strategy == "" {
		c.Sync.Strategy = DefaultStrategy
	}
	if c.Sync.Timeout == 0 {
		c.Sync.Timeout = DefaultTimeout
	}
	if c.Sync.Servers == nil {
		c.Sync.Servers = []string{}
	}
	if c.Sync.SyncDBs == nil {
		c.Sync.SyncDBs = []string{}
	}
}

// Overrides are command-line values. Nil fields leave the file value alone.
type Overrides struct {
	Backend  *string
	Host     *string
	Port     *int
	Socket   *string
	User     *string
	Password *string
	Name     *string
	Table    *string
	Strategy *string
	Include  []string
}

// Apply copies every set override into c.
func (c *Config) Apply(o Overrides) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Database.Backend, o.Backend)
	set(&c.Database.Host, o.Host)
	set(&c.Database.Socket, o.Socket)
	set(&c.Database.User, o.User)
	set(&c.Database.Password, o.Password)
	set(&c.Database.Name, o.Name)
	set(&c.Database.Table, o.Table)
	set(&c.Sync.Strategy, o.Strategy)
	if o.Port != nil {
		c.Database.Port = *o.Port
	}
	if len(o.Include) > 0 {
		c.Sync.Include = append([]string(nil), o.Include...)
	}
}

// ServerList returns the mirror templates in the order they are tried:
// server first, then servers.
func (c *Config) ServerList() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range append([]string{c.Sync.Server}, c.Sync.Servers...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// PostgresDSN builds a connection URL from the database section. A socket
// directory takes precedence over host and port.
func (c *Config) PostgresDSN() string {
	db := c.Database
	u := url.URL{Scheme: "postgres", Path: "/" + db.Name}
	switch {
	case db.User != "" && db.Password != "":
		u.User = url.UserPassword(db.User, db.Password)
	case db.User != "":
		u.User = url.User(db.User)
	}

	q := url.Values{}
	if db.Socket != "" {
		q.Set("host", db.Socket)
	} else if db.Host != "" {
		u.Host = db.Host
		if db.Port != 0 {
			u.Host = net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
		}
	}
	if db.SSLMode != "" {
		q.Set("sslmode", db.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func splitList(s string) []string {
	return strings.Fields(s)
}

func parsePort(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("port %q: %w", s, err)
	}
	return p, nil
}
