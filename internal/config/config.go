package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the server tuning knobs. Zero values are replaced by
// Default() so a partial YAML file only overrides what it names.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`
	TickRateHz  int    `yaml:"tick_rate_hz"`
	WorldWidth  int    `yaml:"world_width"`
	WorldHeight int    `yaml:"world_height"`

	Command CommandConfig `yaml:"command"`
}

// CommandConfig tunes the command-layer thresholds. Distances are in world
// units unless the name says otherwise.
type CommandConfig struct {
	DirectPathThreshold     int     `yaml:"direct_path_threshold"`
	PathRequestCooldownSec  float64 `yaml:"path_request_cooldown_s"`
	SameTargetEpsilonSq     float64 `yaml:"same_target_epsilon_sq"`
	GoalMovementThresholdSq float64 `yaml:"goal_movement_threshold_sq"`
	WaypointSkipEpsilonSq   float64 `yaml:"waypoint_skip_epsilon_sq"`
	NearThresholdMin        float64 `yaml:"near_threshold_min"`
	NearThresholdMax        float64 `yaml:"near_threshold_max"`
	ScatterFloor            float64 `yaml:"scatter_floor"`
	FastUnitSpeedMargin     float64 `yaml:"fast_unit_speed_margin"`
}

func Default() Config {
	return Config{
		ListenAddr:  ":8080",
		TickRateHz:  20,
		WorldWidth:  128,
		WorldHeight: 128,
		Command: CommandConfig{
			DirectPathThreshold:     4,
			PathRequestCooldownSec:  1.0,
			SameTargetEpsilonSq:     0.01,
			GoalMovementThresholdSq: 4.0,
			WaypointSkipEpsilonSq:   0.25,
			NearThresholdMin:        4.0,
			NearThresholdMax:        12.0,
			ScatterFloor:            2.5,
			FastUnitSpeedMargin:     0.5,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error; the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyFloors()
	return cfg, nil
}

func (c *Config) applyFloors() {
	def := Default()
	if c.TickRateHz <= 0 {
		c.TickRateHz = def.TickRateHz
	}
	if c.WorldWidth <= 0 {
		c.WorldWidth = def.WorldWidth
	}
	if c.WorldHeight <= 0 {
		c.WorldHeight = def.WorldHeight
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	cmd := &c.Command
	defCmd := def.Command
	if cmd.DirectPathThreshold <= 0 {
		cmd.DirectPathThreshold = defCmd.DirectPathThreshold
	}
	if cmd.PathRequestCooldownSec <= 0 {
		cmd.PathRequestCooldownSec = defCmd.PathRequestCooldownSec
	}
	if cmd.SameTargetEpsilonSq <= 0 {
		cmd.SameTargetEpsilonSq = defCmd.SameTargetEpsilonSq
	}
	if cmd.GoalMovementThresholdSq <= 0 {
		cmd.GoalMovementThresholdSq = defCmd.GoalMovementThresholdSq
	}
	if cmd.WaypointSkipEpsilonSq <= 0 {
		cmd.WaypointSkipEpsilonSq = defCmd.WaypointSkipEpsilonSq
	}
	if cmd.NearThresholdMin <= 0 {
		cmd.NearThresholdMin = defCmd.NearThresholdMin
	}
	if cmd.NearThresholdMax < cmd.NearThresholdMin {
		cmd.NearThresholdMax = defCmd.NearThresholdMax
	}
	if cmd.ScatterFloor <= 0 {
		cmd.ScatterFloor = defCmd.ScatterFloor
	}
	if cmd.FastUnitSpeedMargin <= 0 {
		cmd.FastUnitSpeedMargin = defCmd.FastUnitSpeedMargin
	}
}
