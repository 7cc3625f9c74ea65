// Package config loads runtime settings from .env files, the environment, an
// optional config file and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/stevemurr/content-builder/store"
)

// Config holds every setting the commands read.
type Config struct {
	Store  store.Config
	Server Server
	Log    Log
	Export Export
	OpenAI OpenAI

	// ConfigFile is the file viper actually read, empty when none was found.
	ConfigFile string
}

type Server struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type Log struct {
	Mode  string
	Level string
}

type Export struct {
	Dir string
	// Schedule is a cron spec for periodic snapshots; empty disables them.
	Schedule string
}

type OpenAI struct {
	APIKey string
	Model  string
}

// Addr is the listen address for the HTTP server.
func (s Server) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// key, environment variable and default for every setting.
var settings = []struct {
	key, env string
	def      any
}{
	{"store.backend", "STORE_BACKEND", "json"},
	{"store.data_dir", "DATA_DIR", "./data"},
	{"store.dsn", "DATABASE_URL", ""},
	{"server.host", "HOST", "0.0.0.0"},
	{"server.port", "PORT", 5001},
	{"server.allowed_origins", "ALLOWED_ORIGINS", "http://localhost:5010,http://localhost:3000"},
	{"log.mode", "LOG_MODE", "dev"},
	{"log.level", "LOG_LEVEL", "info"},
	{"export.dir", "EXPORT_DIR", "./exports"},
	{"export.schedule", "EXPORT_SCHEDULE", ""},
	{"openai.api_key", "OPENAI_API_KEY", ""},
	{"openai.model", "OPENAI_MODEL", "gpt-4o-mini"},
}

// EnvFiles are loaded before anything else. godotenv never overwrites a set
// variable, so the real environment wins, then .env.local, then .env.
var EnvFiles = []string{".env.local", ".env"}

// Setup registers defaults and environment bindings on v and reads the config
// file: configFile when set, otherwise content-builder.{yaml,toml,json} in the
// working directory if one exists.
func Setup(v *viper.Viper, configFile string) error {
	loadEnvFiles()

	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return fmt.Errorf("bind %s: %w", s.env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("content-builder")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// FromViper builds a Config from the current values in v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Store: store.Config{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("store.backend"))),
			DataDir: v.GetString("store.data_dir"),
			DSN:     v.GetString("store.dsn"),
		},
		Server: Server{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			AllowedOrigins: stringList(v, "server.allowed_origins"),
		},
		Log: Log{
			Mode:  v.GetString("log.mode"),
			Level: v.GetString("log.level"),
		},
		Export: Export{
			Dir:      v.GetString("export.dir"),
			Schedule: strings.TrimSpace(v.GetString("export.schedule")),
		},
		OpenAI: OpenAI{
			APIKey: v.GetString("openai.api_key"),
			Model:  v.GetString("openai.model"),
		},
		ConfigFile: v.ConfigFileUsed(),
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	return cfg, nil
}

// Load is Setup followed by FromViper on a fresh viper instance.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if err := Setup(v, configFile); err != nil {
		return nil, err
	}
	return FromViper(v)
}

func loadEnvFiles() {
	for _, f := range EnvFiles {
		_ = godotenv.Load(f)
	}
}

// stringList reads key as a comma separated string (environment) or as a
// list (config file), dropping blanks.
func stringList(v *viper.Viper, key string) []string {
	raw, ok := v.Get(key).(string)
	if !ok {
		return v.GetStringSlice(key)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
