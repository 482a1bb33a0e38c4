// Package config handles simulator configuration loading and management.
package config

import "time"

// Config holds all simulator settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Terrain TerrainConfig `yaml:"terrain"`
	Goal    GoalConfig    `yaml:"goal"`
	Ball    BallConfig    `yaml:"ball"`
	Physics PhysicsConfig `yaml:"physics"`
	Sweep   SweepConfig   `yaml:"sweep"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds viewer display settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// TerrainConfig holds the height grid and noise settings.
type TerrainConfig struct {
	Columns   int     `yaml:"columns"`
	Rows      int     `yaml:"rows"`
	Width     float32 `yaml:"width"`     // X extent in metres
	Depth     float32 `yaml:"depth"`     // Z extent in metres
	Elevation float32 `yaml:"elevation"` // world Y of the grid origin
	Seed      int64   `yaml:"seed"`
	Frequency float32 `yaml:"frequency"` // noise feature size in metres
	Amplitude float32 `yaml:"amplitude"`
}

// GoalConfig holds the cavity placement and shape.
type GoalConfig struct {
	CenterX float32 `yaml:"center_x"` // relative 0..1
	CenterZ float32 `yaml:"center_z"` // relative 0..1
	Radius  float32 `yaml:"radius"`
	Depth   float32 `yaml:"depth"`
	Sectors int     `yaml:"sectors"`
}

// BallConfig holds the ball and launch point settings.
type BallConfig struct {
	Radius  float32    `yaml:"radius"`
	LaunchX float32    `yaml:"launch_x"` // relative 0..1
	LaunchZ float32    `yaml:"launch_z"` // relative 0..1
	Color   [3]float32 `yaml:"color"`
}

// PhysicsConfig holds world, material and state machine settings.
type PhysicsConfig struct {
	TickRate            int     `yaml:"tick_rate"` // fixed steps per second
	Gravity             float32 `yaml:"gravity"`
	LinearDamping       float32 `yaml:"linear_damping"`
	AngularDamping      float32 `yaml:"angular_damping"`
	RestingSpeed        float32 `yaml:"resting_speed"`
	MaxSubsteps         int     `yaml:"max_substeps"`
	Bounciness          float32 `yaml:"bounciness"`
	Friction            float32 `yaml:"friction"`
	RollingResistance   float32 `yaml:"rolling_resistance"`
	StationaryThreshold float32 `yaml:"stationary_threshold"`
	GoalTolerance       float32 `yaml:"goal_tolerance"`
}

// SweepConfig holds the parameter sweep and its export.
type SweepConfig struct {
	Divisions int     `yaml:"divisions"`
	BatchSize int     `yaml:"batch_size"`
	Staggered bool    `yaml:"staggered"`
	MinPower  float32 `yaml:"min_power"`
	MaxPower  float32 `yaml:"max_power"`
	MinYaw    float32 `yaml:"min_yaw"`
	MaxYaw    float32 `yaml:"max_yaw"`
	MinPitch  float32 `yaml:"min_pitch"`
	MaxPitch  float32 `yaml:"max_pitch"`
	Output    string  `yaml:"output"`
	// Timeout bounds a headless sweep in simulated time.
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig holds the control API settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	SnapshotRate    int           `yaml:"snapshot_rate"` // websocket frames per second
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console or json
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
		Terrain: TerrainConfig{
			Columns:   64,
			Rows:      64,
			Width:     100,
			Depth:     100,
			Elevation: -5,
			Seed:      1,
			Frequency: 25,
			Amplitude: 2,
		},
		Goal: GoalConfig{
			CenterX: 0.6,
			CenterZ: 0.5,
			Radius:  1.5,
			Depth:   3,
			Sectors: 24,
		},
		Ball: BallConfig{
			Radius:  0.2,
			LaunchX: 0.1,
			LaunchZ: 0.5,
			Color:   [3]float32{0.808, 0.471, 0.408},
		},
		Physics: PhysicsConfig{
			TickRate:            60,
			Gravity:             9.81,
			LinearDamping:       0.05,
			AngularDamping:      0.1,
			RestingSpeed:        0.5,
			MaxSubsteps:         128,
			Bounciness:          0.4,
			Friction:            0.4,
			RollingResistance:   0.15,
			StationaryThreshold: 0.1,
			GoalTolerance:       0.05,
		},
		Sweep: SweepConfig{
			Divisions: 10,
			BatchSize: 150,
			Staggered: false,
			MinPower:  15,
			MaxPower:  30,
			MinYaw:    -15,
			MaxYaw:    15,
			MinPitch:  30,
			MaxPitch:  60,
			Output:    "sweep.txt",
			Timeout:   10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			SnapshotRate:    10,
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
	}
}
