package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/noventa-dev/noventa/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "noventa.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultPoolSize is the default script runtime worker count.
	DefaultPoolSize = 4
)

// Config represents the complete noventa.json configuration. It is an
// explicit dependency: load it once at startup and pass it down, there
// is no global instance.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Server contains HTTP server settings.
	Server ServerConfig `json:"server,omitempty"`

	// Paths contains path configuration for project directories.
	Paths PathsConfig `json:"paths,omitempty"`

	// Pool contains script runtime pool settings.
	Pool PoolConfig `json:"pool,omitempty"`

	// Admission contains load-shedding settings.
	Admission AdmissionConfig `json:"admission,omitempty"`

	// Uploads contains file upload settings.
	Uploads UploadConfig `json:"uploads,omitempty"`

	// Static contains static file serving configuration.
	Static StaticConfig `json:"static,omitempty"`

	// Dev contains development server configuration.
	Dev DevConfig `json:"dev,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`
}

// PathsConfig contains path configuration for project directories.
type PathsConfig struct {
	// Pages is the path to the pages directory.
	Pages string `json:"pages,omitempty"`

	// Components is the path to the components directory.
	Components string `json:"components,omitempty"`
}

// PoolConfig contains script runtime pool settings.
type PoolConfig struct {
	// Workers is the number of runtime instances.
	Workers int `json:"workers,omitempty"`
}

// AdmissionConfig contains load-shedding settings.
type AdmissionConfig struct {
	// Enabled turns adaptive load shedding on.
	Enabled bool `json:"enabled,omitempty"`

	// WindowSeconds is the latency sample retention window.
	WindowSeconds int `json:"windowSeconds,omitempty"`

	// TickSeconds is the recalculation interval.
	TickSeconds int `json:"tickSeconds,omitempty"`

	// Multiplier is how far p95 may exceed the baseline.
	Multiplier float64 `json:"multiplier,omitempty"`
}

// UploadConfig contains file upload settings.
type UploadConfig struct {
	// MaxMemoryBytes is the size above which parts spool to disk.
	MaxMemoryBytes int64 `json:"maxMemoryBytes,omitempty"`

	// TempDir is where spooled parts are written.
	TempDir string `json:"tempDir,omitempty"`

	// Store selects the upload store backend: "disk" or "s3".
	Store string `json:"store,omitempty"`

	// Dir is the disk store's root directory.
	Dir string `json:"dir,omitempty"`

	// S3Bucket is the S3 store's bucket name.
	S3Bucket string `json:"s3Bucket,omitempty"`

	// S3Prefix is prepended to every S3 object key.
	S3Prefix string `json:"s3Prefix,omitempty"`
}

// StaticConfig contains static file serving configuration.
type StaticConfig struct {
	// Dir is the directory containing static files.
	Dir string `json:"dir,omitempty"`

	// Prefix is the URL prefix for static files.
	Prefix string `json:"prefix,omitempty"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Watch contains extra paths to watch for changes.
	Watch []string `json:"watch,omitempty"`

	// HotReload enables live page updates in development.
	HotReload bool `json:"hotReload,omitempty"`

	// PollInterval is the watcher poll interval in milliseconds.
	PollInterval int `json:"pollIntervalMs,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Server: ServerConfig{
			Port: DefaultPort,
			Host: DefaultHost,
		},
		Paths: PathsConfig{
			Pages:      "pages",
			Components: "components",
		},
		Pool: PoolConfig{
			Workers: DefaultPoolSize,
		},
		Admission: AdmissionConfig{
			Enabled:       true,
			WindowSeconds: 30,
			TickSeconds:   1,
			Multiplier:    2.0,
		},
		Uploads: UploadConfig{
			MaxMemoryBytes: 1 << 20,
			Store:          "disk",
			Dir:            "uploads",
		},
		Static: StaticConfig{
			Dir:    "public",
			Prefix: "/static",
		},
		Dev: DevConfig{
			HotReload:    true,
			PollInterval: 200,
		},
	}
}

// Load reads configuration from the specified directory. It looks for
// noventa.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E060").
				WithDetail("No noventa.json found in " + filepath.Dir(path)).
				WithSuggestion("Create noventa.json in the project root")
		}
		return nil, errors.New("E060").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E060").
			WithDetail("Failed to parse noventa.json: " + err.Error()).
			WithSuggestion("Check that noventa.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E060").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E060").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills any zero-valued field a partial file left out.
func (c *Config) applyDefaults() {
	defaults := New()
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Paths.Pages == "" {
		c.Paths.Pages = defaults.Paths.Pages
	}
	if c.Paths.Components == "" {
		c.Paths.Components = defaults.Paths.Components
	}
	if c.Pool.Workers == 0 {
		c.Pool.Workers = defaults.Pool.Workers
	}
	if c.Admission.WindowSeconds == 0 {
		c.Admission.WindowSeconds = defaults.Admission.WindowSeconds
	}
	if c.Admission.TickSeconds == 0 {
		c.Admission.TickSeconds = defaults.Admission.TickSeconds
	}
	if c.Admission.Multiplier == 0 {
		c.Admission.Multiplier = defaults.Admission.Multiplier
	}
	if c.Uploads.MaxMemoryBytes == 0 {
		c.Uploads.MaxMemoryBytes = defaults.Uploads.MaxMemoryBytes
	}
	if c.Uploads.Store == "" {
		c.Uploads.Store = defaults.Uploads.Store
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = defaults.Uploads.Dir
	}
	if c.Static.Dir == "" {
		c.Static.Dir = defaults.Static.Dir
	}
	if c.Static.Prefix == "" {
		c.Static.Prefix = defaults.Static.Prefix
	}
	if c.Dev.PollInterval == 0 {
		c.Dev.PollInterval = defaults.Dev.PollInterval
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errors.New("E060").
			WithDetail("server.port must be between 1 and 65535, got " + strconv.Itoa(c.Server.Port))
	}
	if c.Pool.Workers < 1 {
		return errors.New("E060").
			WithDetail("pool.workers must be at least 1, got " + strconv.Itoa(c.Pool.Workers))
	}
	switch c.Uploads.Store {
	case "disk", "s3":
	default:
		return errors.New("E060").
			WithDetail("uploads.store must be \"disk\" or \"s3\", got " + strconv.Quote(c.Uploads.Store))
	}
	if c.Uploads.Store == "s3" && c.Uploads.S3Bucket == "" {
		return errors.New("E060").
			WithDetail("uploads.s3Bucket is required when uploads.store is \"s3\"")
	}
	return nil
}

// Address returns the host:port the server binds to.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// PagesPath returns the absolute pages directory.
func (c *Config) PagesPath() string {
	return c.resolve(c.Paths.Pages)
}

// ComponentsPath returns the absolute components directory.
func (c *Config) ComponentsPath() string {
	return c.resolve(c.Paths.Components)
}

// StaticPath returns the absolute static files directory.
func (c *Config) StaticPath() string {
	return c.resolve(c.Static.Dir)
}

// UploadsPath returns the absolute disk upload store directory.
func (c *Config) UploadsPath() string {
	return c.resolve(c.Uploads.Dir)
}

// AdmissionWindow returns the sample window as a duration.
func (c *Config) AdmissionWindow() time.Duration {
	return time.Duration(c.Admission.WindowSeconds) * time.Second
}

// AdmissionTick returns the recalculation interval as a duration.
func (c *Config) AdmissionTick() time.Duration {
	return time.Duration(c.Admission.TickSeconds) * time.Second
}

// WatchPollInterval returns the watcher poll interval as a duration.
func (c *Config) WatchPollInterval() time.Duration {
	return time.Duration(c.Dev.PollInterval) * time.Millisecond
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists reports whether a noventa.json exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up from startDir looking for noventa.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E060").
				WithDetail("No noventa.json found in " + startDir + " or any parent directory").
				WithSuggestion("Run from inside a project, or create noventa.json")
		}
		dir = parent
	}
}

// LoadFromWorkingDir finds the project root from the current directory
// and loads its configuration.
func LoadFromWorkingDir() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindProjectRoot(cwd)
	if err != nil {
		return nil, err
	}
	return Load(root)
}
