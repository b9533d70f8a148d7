// Package config resolves runtime settings from defaults, an optional
// roost.yaml, ROOST_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys.
const (
	KeyEconomyInterval  = "economy_interval"
	KeyAIInterval       = "ai_interval"
	KeyAutosaveInterval = "autosave_interval"
	KeyDBPath           = "db_path"
	KeyAPIPort          = "api_port"
	KeySeed             = "seed"
	KeyAdminKey         = "admin_key"
	KeyContentPath      = "content_path"
	KeySaveSlot         = "save_slot"
	KeyLogLevel         = "log_level"
)

// TickInterval is the only supported economy_interval. Per-tick deltas are
// per-second rates over ten ticks; pacing changes go through the engine's
// speed multiplier.
const TickInterval = 100 * time.Millisecond

// Config is the resolved settings for one process.
type Config struct {
	EconomyInterval  time.Duration
	AIInterval       time.Duration
	AutosaveInterval time.Duration
	DBPath           string
	APIPort          int
	Seed             int64 // 0 selects crypto randomness.
	AdminKey         string
	ContentPath      string
	SaveSlot         string
	LogLevel         string
}

// New returns a viper instance carrying the defaults and env binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyEconomyInterval, TickInterval)
	v.SetDefault(KeyAIInterval, 5*time.Second)
	v.SetDefault(KeyAutosaveInterval, 30*time.Second)
	v.SetDefault(KeyDBPath, filepath.Join("data", "roost.db"))
	v.SetDefault(KeyAPIPort, 8080)
	v.SetDefault(KeySeed, 0)
	v.SetDefault(KeyAdminKey, "")
	v.SetDefault(KeyContentPath, "")
	v.SetDefault(KeySaveSlot, "auto")
	v.SetDefault(KeyLogLevel, "info")

	v.SetConfigName("roost")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.roost")

	v.SetEnvPrefix("ROOST")
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag in fs whose name matches a key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key := flagKey(f.Name)
		if !known(key) {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Load reads the config file if there is one and resolves every key.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	c := Config{
		EconomyInterval:  v.GetDuration(KeyEconomyInterval),
		AIInterval:       v.GetDuration(KeyAIInterval),
		AutosaveInterval: v.GetDuration(KeyAutosaveInterval),
		DBPath:           v.GetString(KeyDBPath),
		APIPort:          v.GetInt(KeyAPIPort),
		Seed:             v.GetInt64(KeySeed),
		AdminKey:         v.GetString(KeyAdminKey),
		ContentPath:      v.GetString(KeyContentPath),
		SaveSlot:         v.GetString(KeySaveSlot),
		LogLevel:         v.GetString(KeyLogLevel),
	}
	return c, c.Validate()
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	switch {
	case c.EconomyInterval != TickInterval:
		return fmt.Errorf("%s must be %s, got %s", KeyEconomyInterval, TickInterval, c.EconomyInterval)
	case c.AIInterval < c.EconomyInterval:
		return fmt.Errorf("%s (%s) is shorter than %s (%s)", KeyAIInterval, c.AIInterval, KeyEconomyInterval, c.EconomyInterval)
	case c.AutosaveInterval < 0:
		return fmt.Errorf("%s must not be negative", KeyAutosaveInterval)
	case c.APIPort <= 0 || c.APIPort > 65535:
		return fmt.Errorf("%s out of range: %d", KeyAPIPort, c.APIPort)
	case c.SaveSlot == "":
		return fmt.Errorf("%s must not be empty", KeySaveSlot)
	}
	return nil
}

// AIEvery converts the AI interval into economy ticks.
func (c Config) AIEvery() uint64 {
	return ticks(c.AIInterval, c.EconomyInterval)
}

// AutosaveEvery converts the autosave interval into economy ticks. Zero
// disables autosave.
func (c Config) AutosaveEvery() uint64 {
	if c.AutosaveInterval == 0 {
		return 0
	}
	return ticks(c.AutosaveInterval, c.EconomyInterval)
}

func ticks(d, per time.Duration) uint64 {
	return uint64(max(d/per, 1))
}

func flagKey(name string) string {
	out := []byte(name)
	for i, b := range out {
		if b == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}

func known(key string) bool {
	switch key {
	case KeyEconomyInterval, KeyAIInterval, KeyAutosaveInterval, KeyDBPath, KeyAPIPort,
		KeySeed, KeyAdminKey, KeyContentPath, KeySaveSlot, KeyLogLevel:
		return true
	}
	return false
}
