// Package config handles viewer configuration loading and management.
package config

import (
	"github.com/Faultbox/crystalview/pkg/formats"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig     `yaml:"window"`
	Scene   formats.Settings `yaml:"scene"`
	Export  ExportConfig     `yaml:"export"`
	Watch   WatchConfig      `yaml:"watch"`
	Logging LoggingConfig    `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// ExportConfig holds screenshot and download settings.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	Format    string `yaml:"format"`     // default for the export key
	Prefix    string `yaml:"prefix"`     // screenshot file prefix
	UseDialog bool   `yaml:"use_dialog"` // ask for the path with a save dialog
}

// WatchConfig controls live reload of the scene file.
type WatchConfig struct {
	Enabled  bool `yaml:"enabled"`
	Debounce int  `yaml:"debounce_ms"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Scene: formats.DefaultSettings(),
		Export: ExportConfig{
			OutputDir: "screenshots",
			Format:    "glb",
			Prefix:    "crystalview",
			UseDialog: false,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
