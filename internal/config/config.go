// Package config holds the CLI configuration and its file loader.
package config

// Config is the top-level configuration of the stratum command.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
	Decode DecodeConfig `mapstructure:"decode"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig controls how decoded packets are rendered.
type OutputConfig struct {
	// Format is "text" or "yaml".
	Format string `mapstructure:"format"`
	// File receives the rendered output; empty means stdout.
	File string `mapstructure:"file"`
}

// DecodeConfig tunes the decode loop.
type DecodeConfig struct {
	// FirstHeader overrides the link-type derived first protocol;
	// empty lets the engine guess.
	FirstHeader string `mapstructure:"first_header"`
	// MaxPackets stops the capture-file loop after that many packets;
	// zero means no limit.
	MaxPackets int `mapstructure:"max_packets"`
}
