package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration settings for the application
type Config struct {
	// BindAddr is the address the web server binds to
	BindAddr string `toml:"bind_addr"`

	// Port is the port the web server listens on
	Port int `toml:"port"`

	// DatabasePath is the path to the SQLite database file
	DatabasePath string `toml:"database_path"`

	// CacheDir is the directory where fetched pages are cached
	CacheDir string `toml:"cache_dir"`

	// OutputDir is the directory where rendered lyric files are written
	OutputDir string `toml:"output_dir"`

	// IndexFile is an optional YAML file overriding the built-in
	// artist index registry
	IndexFile string `toml:"index_file"`

	// Verbosity is the default log verbosity (0 warnings, 1 info,
	// 2 debug); -v/-vv flags override it
	Verbosity int `toml:"verbosity"`
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	config := &Config{
		BindAddr:     DefaultBindAddr,
		Port:         DefaultPort,
		DatabasePath: "lyricfetch.db",
	}

	cacheRoot, err := os.UserCacheDir()
	if err != nil {
		cacheRoot = "."
	}
	config.CacheDir = filepath.Join(cacheRoot, "lyric_fetcher")
	config.OutputDir = filepath.Join(config.CacheDir, "lyrics")

	return config
}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	// Start with default configuration
	config := defaultConfig()

	// Try to load from config.toml if it exists
	configPath := os.Getenv("LYRICFETCH_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	// Override with environment variables if set
	if bindAddr := os.Getenv("LYRICFETCH_BIND_ADDR"); bindAddr != "" {
		config.BindAddr = bindAddr
	}

	if port := os.Getenv("LYRICFETCH_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid LYRICFETCH_PORT %q: %w", port, err)
		}
		config.Port = p
	}

	if dbPath := os.Getenv("LYRICFETCH_DATABASE_PATH"); dbPath != "" {
		config.DatabasePath = dbPath
	}

	if cacheDir := os.Getenv("LYRICFETCH_CACHE_DIR"); cacheDir != "" {
		config.CacheDir = cacheDir
	}

	if outputDir := os.Getenv("LYRICFETCH_OUTPUT_DIR"); outputDir != "" {
		config.OutputDir = outputDir
	}

	if indexFile := os.Getenv("LYRICFETCH_INDEX_FILE"); indexFile != "" {
		config.IndexFile = indexFile
	}

	if verbosity := os.Getenv("LYRICFETCH_VERBOSITY"); verbosity != "" {
		v, err := strconv.Atoi(verbosity)
		if err != nil {
			return nil, fmt.Errorf("invalid LYRICFETCH_VERBOSITY %q: %w", verbosity, err)
		}
		config.Verbosity = v
	}

	// Ensure CacheDir and OutputDir are absolute
	for _, dir := range []*string{&config.CacheDir, &config.OutputDir} {
		if !filepath.IsAbs(*dir) {
			absPath, err := filepath.Abs(*dir)
			if err != nil {
				return nil, fmt.Errorf("failed to get absolute path for %s: %w", *dir, err)
			}
			*dir = absPath
		}
	}

	return config, nil
}

// ListenAddr returns the address:port the server listens on
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("BindAddr: %s", c.BindAddr))
	parts = append(parts, fmt.Sprintf("Port: %d", c.Port))
	parts = append(parts, fmt.Sprintf("DatabasePath: %s", c.DatabasePath))
	parts = append(parts, fmt.Sprintf("CacheDir: %s", c.CacheDir))
	parts = append(parts, fmt.Sprintf("OutputDir: %s", c.OutputDir))
	return strings.Join(parts, ", ")
}
