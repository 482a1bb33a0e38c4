package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagAddr       = flag.String("addr", "", "Control API listen address")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagSeed       = flag.Int64("seed", 0, "Terrain noise seed")
	flagDivisions  = flag.Int("divisions", 0, "Sweep divisions per parameter")
	flagBatchSize  = flag.Int("batch-size", 0, "Staggered batch size")
	flagStaggered  = flag.Bool("staggered", false, "Release the sweep in staggered batches")
	flagOutput     = flag.String("output", "", "Sweep export file")
	flagWriteConf  = flag.String("write-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the --write-config path, empty when not set.
func WriteConfigPath() string {
	return *flagWriteConf
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagSeed != 0 {
		cfg.Terrain.Seed = *flagSeed
	}
	if *flagDivisions > 0 {
		cfg.Sweep.Divisions = *flagDivisions
	}
	if *flagBatchSize > 0 {
		cfg.Sweep.BatchSize = *flagBatchSize
	}
	if *flagStaggered {
		cfg.Sweep.Staggered = true
	}
	if *flagOutput != "" {
		cfg.Sweep.Output = *flagOutput
	}
}
