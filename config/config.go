package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"path/filepath"
	"time"

	"pathfinder/session"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var log = logrus.New()

// SetLogger replaces the package logger.
func SetLogger(logger *logrus.Logger) {
	log = logger
}

// Kind is the expected value of the envelope's kind field.
const Kind = "pathfinder"

// EnvPrefix prefixes every environment override, e.g. PATHFINDER_PORT.
const EnvPrefix = "PATHFINDER"

// OuterConfig is the file envelope: a kind tag and the document itself.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

// Addr is the listen address.
func (sc ServerConfig) Addr() string {
	return net.JoinHostPort(sc.Host, sc.Port)
}

type ReplayConfig struct {
	// RedisAddr selects the redis store; empty keeps replays in memory.
	RedisAddr     string        `yaml:"redisaddr"`
	RedisPassword string        `yaml:"redispassword"`
	RedisDB       int           `yaml:"redisdb"`
	TTL           time.Duration `yaml:"ttl"`
}

// Config is the whole application configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Session session.Config `yaml:"session"`
	Replay  ReplayConfig   `yaml:"replay"`
	Debug   bool           `yaml:"debug"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		Session: session.DefaultConfig(),
		Replay:  ReplayConfig{TTL: 24 * time.Hour},
	}
}

// FromYaml reads the config file at path over the defaults. A missing file
// is not an error: the defaults are returned.
func FromYaml(path string) (*Config, error) {
	cfg := Default()

	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			log.WithField("path", path).Info("no config file, using defaults")
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	outerConfig := &OuterConfig{}
	if err := vp.Unmarshal(outerConfig); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if outerConfig.Kind != Kind {
		return nil, fmt.Errorf("config %s: kind %q, want %q", path, outerConfig.Kind, Kind)
	}

	// Re-encode the inner document so yaml tags and durations apply. Viper
	// folds keys to lower case, so the tags are lower case too.
	spec, err := yaml.Marshal(outerConfig.Def)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err = yaml.Unmarshal(spec, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from the .env file in dir into the
// process environment, without overriding variables already set.
func LoadDotEnv(dir string) {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil {
		log.WithField("path", path).Debugf(".env not loaded: %v", err)
	}
}

// ApplyEnv overrides cfg with PATHFINDER_* environment variables.
func ApplyEnv(cfg *Config) {
	vp := viper.New()
	vp.SetEnvPrefix(EnvPrefix)
	vp.AutomaticEnv()

	if vp.IsSet("host") {
		cfg.Server.Host = vp.GetString("host")
	}
	if vp.IsSet("port") {
		cfg.Server.Port = vp.GetString("port")
	}
	if vp.IsSet("layout") {
		cfg.Session.Layout = vp.GetString("layout")
	}
	if vp.IsSet("redis_addr") {
		cfg.Replay.RedisAddr = vp.GetString("redis_addr")
	}
	if vp.IsSet("debug") {
		cfg.Debug = vp.GetBool("debug")
	}
}

// Load is the usual startup sequence: .env next to the config file, the
// file itself, then environment overrides.
func Load(path string) (*Config, error) {
	LoadDotEnv(filepath.Dir(path))

	cfg, err := FromYaml(path)
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg)

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the assembled configuration.
func (cfg *Config) Validate() error {
	if err := cfg.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if cfg.Server.Port == "" {
		return errors.New("server: port is required")
	}
	if cfg.Replay.TTL < 0 {
		return fmt.Errorf("replay: invalid ttl %v", cfg.Replay.TTL)
	}
	return nil
}

// Environ lists the recognized environment variables, for --help output.
func Environ() []string {
	names := []string{"HOST", "PORT", "LAYOUT", "REDIS_ADDR", "DEBUG"}
	for i, name := range names {
		names[i] = EnvPrefix + "_" + name
	}
	return names
}
