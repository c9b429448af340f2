// Package config loads the engine configuration from TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	gomath "math"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/spaghettifunk/kosmos/engine/origin"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Vec3 [3]float64

func (v Vec3) Vec3() math.Vec3 {
	return math.NewVec3(v[0], v[1], v[2])
}

type Origin struct {
	Mode        string  `toml:"mode"`
	MaxDistance float64 `toml:"max_distance"`
	HistorySize int     `toml:"history_size"`
}

type Player struct {
	Start     Vec3    `toml:"start"`
	MoveSpeed float64 `toml:"move_speed"`
	TurnSpeed float64 `toml:"turn_speed"`
}

type Kamera struct {
	EyeOffset   Vec3 `toml:"eye_offset"`
	FirstPerson bool `toml:"first_person"`
}

type Testbed struct {
	Autopilot      bool    `toml:"autopilot"`
	AutopilotSpeed float64 `toml:"autopilot_speed"`
}

type Config struct {
	LogLevel string  `toml:"log_level"`
	Origin   Origin  `toml:"origin"`
	Player   Player  `toml:"player"`
	Kamera   Kamera  `toml:"kamera"`
	Testbed  Testbed `toml:"testbed"`
}

// Default returns the configuration used for every key a file leaves out.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Origin: Origin{
			Mode:        origin.ModePlayerFloating.String(),
			MaxDistance: 500,
			HistorySize: 16,
		},
		Player: Player{
			MoveSpeed: 50,
			TurnSpeed: 1,
		},
		Kamera: Kamera{
			EyeOffset:   Vec3{0, 1.7, 0},
			FirstPerson: true,
		},
		Testbed: Testbed{
			Autopilot:      true,
			AutopilotSpeed: 120,
		},
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Mode(); err != nil {
		return fmt.Errorf("%w: origin.mode: %w", ErrInvalidConfig, err)
	}
	d := c.Origin.MaxDistance
	if d < 0 || gomath.IsNaN(d) || gomath.IsInf(d, 0) {
		return fmt.Errorf("%w: origin.max_distance must be a positive finite number, got %v", ErrInvalidConfig, d)
	}
	if c.Origin.HistorySize < 1 {
		return fmt.Errorf("%w: origin.history_size must be at least 1, got %d", ErrInvalidConfig, c.Origin.HistorySize)
	}
	if c.Player.MoveSpeed < 0 || c.Player.TurnSpeed < 0 || c.Testbed.AutopilotSpeed < 0 {
		return fmt.Errorf("%w: speeds must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) Mode() (origin.Mode, error) {
	return origin.ParseMode(c.Origin.Mode)
}

func (c *Config) Level() core.LogLevel {
	level, err := core.ParseLogLevel(c.LogLevel)
	if err != nil {
		return core.InfoLevel
	}
	return level
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
