package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the pipeline configuration shared with the browser UI and the
// original shell tooling. It is persisted as a key="value" env file, one
// pair per line, comments starting with '#'. The format must stay readable
// by everything else that consumes it.
type Config struct {
	S3Bucket        string
	S3StorageClass  string
	S3PrefixRaw     string
	S3PrefixJPG     string
	AWSRegion       string
	AWSProfile      string
	LocalImportBase string
	RawExtensions   []string
	JPGExtensions   []string
	ExcludePatterns []string
}

// Env file keys. These names are part of the persisted format.
const (
	KeyS3Bucket        = "S3_BUCKET"
	KeyS3StorageClass  = "S3_STORAGE_CLASS"
	KeyS3PrefixRaw     = "S3_PREFIX_RAW"
	KeyS3PrefixJPG     = "S3_PREFIX_JPG"
	KeyAWSRegion       = "AWS_REGION"
	KeyAWSProfile      = "AWS_PROFILE"
	KeyLocalImportBase = "LOCAL_IMPORT_BASE"
	KeyRawExtensions   = "RAW_EXTENSIONS"
	KeyJPGExtensions   = "JPG_EXTENSIONS"
	KeyExcludePatterns = "EXCLUDE_PATTERNS"
)

// knownKeys is the set of keys accepted on merge; unknown keys in a POSTed
// partial config are rejected rather than silently written.
var knownKeys = map[string]bool{
	KeyS3Bucket: true, KeyS3StorageClass: true, KeyS3PrefixRaw: true,
	KeyS3PrefixJPG: true, KeyAWSRegion: true, KeyAWSProfile: true,
	KeyLocalImportBase: true, KeyRawExtensions: true, KeyJPGExtensions: true,
	KeyExcludePatterns: true,
}

// DefaultConfig returns a Config with the stock extension sets and prefixes.
func DefaultConfig() *Config {
	return &Config{
		S3StorageClass:  "STANDARD",
		S3PrefixRaw:     "raw",
		S3PrefixJPG:     "jpg",
		RawExtensions:   []string{"arw", "cr2", "cr3", "nef", "dng", "orf", "raf", "rw2"},
		JPGExtensions:   []string{"jpg", "jpeg", "heic"},
		ExcludePatterns: nil,
	}
}

// Configured reports whether the config is complete enough to upload.
func (c *Config) Configured() bool {
	return c.S3Bucket != "" && c.LocalImportBase != ""
}

// Values returns the config as env file key/value pairs.
func (c *Config) Values() map[string]string {
	return map[string]string{
		KeyS3Bucket:        c.S3Bucket,
		KeyS3StorageClass:  c.S3StorageClass,
		KeyS3PrefixRaw:     c.S3PrefixRaw,
		KeyS3PrefixJPG:     c.S3PrefixJPG,
		KeyAWSRegion:       c.AWSRegion,
		KeyAWSProfile:      c.AWSProfile,
		KeyLocalImportBase: c.LocalImportBase,
		KeyRawExtensions:   strings.Join(c.RawExtensions, ","),
		KeyJPGExtensions:   strings.Join(c.JPGExtensions, ","),
		KeyExcludePatterns: strings.Join(c.ExcludePatterns, ","),
	}
}

func fromValues(values map[string]string) *Config {
	cfg := DefaultConfig()
	cfg.apply(values)
	return cfg
}

// apply overlays non-absent values onto the config. A key present with an
// empty value clears the field; an absent key leaves it untouched.
func (c *Config) apply(values map[string]string) {
	set := func(key string, dst *string) {
		if v, ok := values[key]; ok {
			*dst = v
		}
	}
	setList := func(key string, dst *[]string) {
		if v, ok := values[key]; ok {
			*dst = splitList(v)
		}
	}
	set(KeyS3Bucket, &c.S3Bucket)
	set(KeyS3StorageClass, &c.S3StorageClass)
	set(KeyS3PrefixRaw, &c.S3PrefixRaw)
	set(KeyS3PrefixJPG, &c.S3PrefixJPG)
	set(KeyAWSRegion, &c.AWSRegion)
	set(KeyAWSProfile, &c.AWSProfile)
	set(KeyLocalImportBase, &c.LocalImportBase)
	setList(KeyRawExtensions, &c.RawExtensions)
	setList(KeyJPGExtensions, &c.JPGExtensions)
	setList(KeyExcludePatterns, &c.ExcludePatterns)
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Manager reads, merges and writes the env config file.
type Manager struct {
	path string
}

// NewManager creates a Manager for the config file at path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the config file location.
func (m *Manager) Path() string { return m.path }

// Exists reports whether the config file is present.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Load reads the config file. A missing file yields the defaults, so first
// runs work before `config init`.
func (m *Manager) Load() (*Config, error) {
	values, err := godotenv.Read(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config from %s: %w", m.path, err)
	}
	return fromValues(values), nil
}

// Merge overlays the given key/value pairs onto the stored config and
// persists the result. Unknown keys are an error.
func (m *Manager) Merge(partial map[string]string) (*Config, error) {
	for k := range partial {
		if !knownKeys[k] {
			return nil, fmt.Errorf("unknown config key: %s", k)
		}
	}

	cfg, err := m.Load()
	if err != nil {
		return nil, err
	}
	cfg.apply(partial)

	if err := m.Save(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk in the env file format.
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := godotenv.Write(cfg.Values(), m.path); err != nil {
		return fmt.Errorf("writing config to %s: %w", m.path, err)
	}
	return nil
}

// Init creates the config file with defaults. Fails if it already exists.
func (m *Manager) Init() (*Config, error) {
	if m.Exists() {
		return nil, fmt.Errorf("config file already exists at %s", m.path)
	}
	cfg := DefaultConfig()
	if err := m.Save(cfg); err != nil {
		return nil, fmt.Errorf("initializing config: %w", err)
	}
	return cfg, nil
}
