// Package config provides configuration management for the ocalc CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	LogLevel     string        `koanf:"log_level"`
	LogFormat    string        `koanf:"log_format"`
	Server       *ServerConfig `koanf:"server"`
	Editor       *EditorConfig `koanf:"editor"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port  int  `koanf:"port"`
	Watch bool `koanf:"watch"`
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:  DefaultPort,
		Watch: true,
	}
}

// GetServerConfig returns the server config with defaults applied for any unset values.
func (c *Config) GetServerConfig() *ServerConfig {
	if c.Server == nil {
		return DefaultServerConfig()
	}
	srv := c.Server
	if srv.Port == 0 {
		srv.Port = DefaultPort
	}
	return srv
}

// EditorConfig holds configuration for the interactive editor.
type EditorConfig struct {
	// HistoryFile is where line history is kept. Empty disables history.
	HistoryFile string `koanf:"history_file"`
}

// GetEditorConfig returns the editor config, never nil.
func (c *Config) GetEditorConfig() *EditorConfig {
	if c.Editor == nil {
		return &EditorConfig{}
	}
	return c.Editor
}

// Default configuration values
const (
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultPort      = 8765
)

// Valid values of the enumerated options.
var (
	OutputFormats = []string{"auto", "text", "markdown", "json", "raw"}
	LogLevels     = []string{"debug", "info", "warn", "error"}
	LogFormats    = []string{"text", "json"}
)
