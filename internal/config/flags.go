package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagTolerance = flag.Float64("tolerance", 0, "UV snap tolerance (0 = use config)")
	flagGrid      = flag.Int("grid", 0, "UV index grid size (0 = use config)")
	flagLogFile   = flag.String("logfile", "", "Log to this file in addition to console")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagTolerance > 0 {
		cfg.Transfer.Tolerance = float32(*flagTolerance)
	}
	if *flagGrid > 0 {
		cfg.Transfer.GridSize = *flagGrid
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
