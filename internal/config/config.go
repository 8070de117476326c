package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for driveway.
type Config struct {
	BaseDir     string            `toml:"base_dir"`
	LogDir      string            `toml:"log_dir"`
	Database    DatabaseConfig    `toml:"database"`
	Credentials CredentialsConfig `toml:"credentials"`
	Remote      RemoteConfig      `toml:"remote"`
	Sync        SyncConfig        `toml:"sync"`
}

// DatabaseConfig represents configuration for the local mirror database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// CredentialsConfig represents configuration for the credential store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type CredentialsConfig struct {
	Type string `toml:"type"` // "plain" or "age"
	Dir  string `toml:"dir"`
}

// RemoteConfig holds the remote API settings.
type RemoteConfig struct {
	// ClientSecretPath points at the OAuth client secret JSON downloaded
	// from the API console.
	ClientSecretPath string `toml:"client_secret_path"`

	// FileFields and ChangeFields list the per-record fields requested
	// from the server on file and change listings.
	FileFields   []string `toml:"file_fields,omitempty"`
	ChangeFields []string `toml:"change_fields,omitempty"`
}

// SyncConfig controls automatic synchronization before read commands.
type SyncConfig struct {
	Mode     string   `toml:"mode"` // "auto", "yes" or "no"
	Interval Duration `toml:"interval"`
}

// Duration wraps time.Duration so it round-trips through TOML as a string
// like "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultFileFields are the file-record fields fetched when the config does
// not override them.
var DefaultFileFields = []string{"id", "name", "mimeType", "modifiedTime", "parents", "starred", "trashed"}

// DefaultChangeFields are the change-record fields fetched when the config
// does not override them.
var DefaultChangeFields = []string{"fileId", "removed", "file"}

// NewConfig creates a new Config with the provided base directory and
// sensible defaults.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Credentials: CredentialsConfig{
			Type: "plain",
			Dir:  filepath.Join(baseDir, "credentials"),
		},
		Remote: RemoteConfig{
			ClientSecretPath: filepath.Join(baseDir, "client_secret.json"),
		},
		Sync: SyncConfig{
			Mode:     "auto",
			Interval: Duration{5 * time.Minute},
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Remote.FileFields) == 0 {
		cfg.Remote.FileFields = DefaultFileFields
	}
	if len(cfg.Remote.ChangeFields) == 0 {
		cfg.Remote.ChangeFields = DefaultChangeFields
	}
	if cfg.Sync.Mode == "" {
		cfg.Sync.Mode = "auto"
	}
	if cfg.Sync.Interval.Duration == 0 {
		cfg.Sync.Interval = Duration{5 * time.Minute}
	}
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the
// provided Config. An existing file is never overwritten.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
