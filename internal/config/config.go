// Package config handles tool configuration loading and management.
package config

// Config holds all uvshape settings.
type Config struct {
	Transfer TransferConfig `yaml:"transfer"`
	Debug    DebugConfig    `yaml:"debug"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TransferConfig holds correspondence and index settings.
type TransferConfig struct {
	// Tolerance is the UV-space snap distance for vertices that fall just
	// outside every source triangle.
	Tolerance float32 `yaml:"tolerance"`
	// GridSize is the UV index resolution (cells per axis).
	GridSize int `yaml:"grid_size"`
	// MaxCellTris fails the bind when one grid cell collects more
	// triangles than this (pathological UV overlap).
	MaxCellTris int `yaml:"max_cell_tris"`
}

// DebugConfig holds diagnostic output settings.
type DebugConfig struct {
	CoverageDir  string `yaml:"coverage_dir"`  // Output directory for coverage images
	CoverageSize int    `yaml:"coverage_size"` // Image size in pixels per axis
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Transfer: TransferConfig{
			Tolerance:   0.001,
			GridSize:    64,
			MaxCellTris: 1024,
		},
		Debug: DebugConfig{
			CoverageDir:  ".",
			CoverageSize: 1024,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
