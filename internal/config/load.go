package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ini "github.com/lars-t-hansen/ini"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration file at path and applies defaults. It does
// not validate; call Validate after applying overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = parseYAML(bytes.NewReader(data))
	default:
		cfg, err = parseINI(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func parseYAML(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// The INI layout mirrors aurweb's config: a [database] section and an
// [aurblup] section, list values separated by spaces.
var (
	iniParser = ini.NewParser()

	iniDatabase = iniParser.AddSection("database")
	iniBackend  = iniDatabase.AddString("backend")
	iniName     = iniDatabase.AddString("name")
	iniHost     = iniDatabase.AddString("host")
	iniPort     = iniDatabase.AddString("port")
	iniSocket   = iniDatabase.AddString("socket")
	iniUser     = iniDatabase.AddString("user")
	iniPassword = iniDatabase.AddString("password")
	iniSSLMode  = iniDatabase.AddString("sslmode")
	iniTable    = iniDatabase.AddString("table")

	iniSync     = iniParser.AddSection("aurblup")
	iniDBPath   = iniSync.AddString("db-path")
	iniSyncDBs  = iniSync.AddString("sync-dbs")
	iniServer   = iniSync.AddString("server")
	iniServers  = iniSync.AddString("servers")
	iniInclude  = iniSync.AddString("include")
	iniFold     = iniSync.AddString("fold-unicode")
	iniStrategy = iniSync.AddString("strategy")
	iniTimeout  = iniSync.AddString("timeout")
)

func parseINI(r io.Reader) (*Config, error) {
	store, err := iniParser.Parse(r)
	if err != nil {
		return nil, err
	}

	str := func(f *ini.Field) string {
		if !f.Present(store) {
			return ""
		}
		return strings.TrimSpace(f.StringVal(store))
	}

	var cfg Config
	cfg.Database = Database{
		Backend:  str(iniBackend),
		Name:     os.ExpandEnv(str(iniName)),
		Host:     str(iniHost),
		Socket:   str(iniSocket),
		User:     str(iniUser),
		Password: str(iniPassword),
		SSLMode:  str(iniSSLMode),
		Table:    str(iniTable),
	}
	if cfg.Database.Port, err = parsePort(str(iniPort)); err != nil {
		return nil, err
	}

	cfg.Sync = Sync{
		DBPath:   os.ExpandEnv(str(iniDBPath)),
		SyncDBs:  splitList(str(iniSyncDBs)),
		Server:   str(iniServer),
		Servers:  splitList(str(iniServers)),
		Include:  splitList(str(iniInclude)),
		Strategy: str(iniStrategy),
	}
	if f := str(iniFold); f != "" {
		if cfg.Sync.Fold, err = strconv.ParseBool(f); err != nil {
			return nil, fmt.Errorf("fold-unicode %q: %w", f, err)
		}
	}
	if t := str(iniTimeout); t != "" {
		if cfg.Sync.Timeout, err = time.ParseDuration(t); err != nil {
			return nil, fmt.Errorf("timeout %q: %w", t, err)
		}
	}
	return &cfg, nil
}
