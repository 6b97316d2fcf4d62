package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups the application settings. Values come from environment
// variables, optionally seeded from a .env or config.env file.
type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	Mongo  MongoConfig
	Editor EditorConfig
}

type AppConfig struct {
	Env      string // development -> console logs; anything else -> JSON
	LogLevel string
}

type HTTPConfig struct {
	Host string
	Port int
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MongoConfig struct {
	URI      string
	Database string
}

// EditorConfig tunes the autosave sessions.
type EditorConfig struct {
	AutosaveDelay time.Duration
	IdleTimeout   time.Duration
	SaveTimeout   time.Duration
}

// Load reads the configuration. Env vars win over file values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig() // optional

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("PORT"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
		},
		Editor: EditorConfig{
			AutosaveDelay: v.GetDuration("AUTOSAVE_DELAY"),
			IdleTimeout:   v.GetDuration("EDITOR_IDLE_TIMEOUT"),
			SaveTimeout:   v.GetDuration("SAVE_TIMEOUT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("PORT", 7521)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "getnotes")
	v.SetDefault("AUTOSAVE_DELAY", 2*time.Second)
	v.SetDefault("EDITOR_IDLE_TIMEOUT", 30*time.Minute)
	v.SetDefault("SAVE_TIMEOUT", 10*time.Second)
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.HTTP.Port)
	}
	if c.Editor.AutosaveDelay <= 0 {
		return fmt.Errorf("AUTOSAVE_DELAY must be positive, got %s", c.Editor.AutosaveDelay)
	}
	if c.Editor.SaveTimeout <= 0 {
		return fmt.Errorf("SAVE_TIMEOUT must be positive, got %s", c.Editor.SaveTimeout)
	}
	return nil
}
