package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// RateBudget caps one inbound event type inside a trailing window.
type RateBudget struct {
	Max    int           `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	TextMaxLen    int `mapstructure:"text_max_len"`
	ImageMaxBytes int `mapstructure:"image_max_bytes"`
	AudioMaxBytes int `mapstructure:"audio_max_bytes"`

	CodeAttempts int `mapstructure:"code_attempts"`

	BruteForceMax    int           `mapstructure:"brute_force_max"`
	BruteForceWindow time.Duration `mapstructure:"brute_force_window"`

	FreeMaxRooms int      `mapstructure:"free_max_rooms"`
	ProMaxRooms  int      `mapstructure:"pro_max_rooms"`
	ProDevices   []string `mapstructure:"pro_devices"`

	RateLimits map[string]RateBudget `mapstructure:"rate_limits"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 4194304)
	v.SetDefault("ping_period", "54s")

	v.SetDefault("text_max_len", 10000)
	v.SetDefault("image_max_bytes", 2097152)
	v.SetDefault("audio_max_bytes", 1048576)

	v.SetDefault("code_attempts", 100)

	v.SetDefault("brute_force_max", 10)
	v.SetDefault("brute_force_window", "5m")

	v.SetDefault("free_max_rooms", 1)
	v.SetDefault("pro_max_rooms", 5)

	// Per-event quota table. The structure is fixed, the numbers are policy.
	v.SetDefault("rate_limits", map[string]map[string]any{
		"request_room":             {"max": 5, "window": "1m"},
		"join_room":                {"max": 5, "window": "1m"},
		"leave_room":               {"max": 30, "window": "1m"},
		"transmit_text":            {"max": 120, "window": "1m"},
		"transmit_vanish":          {"max": 60, "window": "1m"},
		"transmit_reveal":          {"max": 10, "window": "1m"},
		"transmit_whisper":         {"max": 10, "window": "1m"},
		"transmit_video_controls":  {"max": 60, "window": "1m"},
		"transmit_screen_blur":     {"max": 60, "window": "1m"},
		"send_invite":              {"max": 15, "window": "1m"},
		"accept_invite":            {"max": 15, "window": "1m"},
		"decline_invite":           {"max": 15, "window": "1m"},
		"webrtc-negotiation":       {"max": 60, "window": "1m"},
		"screen-share-negotiation": {"max": 60, "window": "1m"},
		"transmit_presence":        {"max": 120, "window": "1m"},
		"transmit_pulse_tap":       {"max": 60, "window": "1m"},
		"heartbeat":                {"max": 120, "window": "1m"},
	})

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d\n", cfg.Mode, cfg.Port)
	return &cfg, nil
}
