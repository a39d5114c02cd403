// Package config loads studyup settings from defaults, an optional .env
// file, a yaml config file and STUDYUP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/studyup/studyup/internal/api"
	"github.com/studyup/studyup/internal/llm"
	"github.com/studyup/studyup/internal/question"
)

// EnvPrefix prefixes every environment override, e.g. STUDYUP_API_BASE_URL.
const EnvPrefix = "STUDYUP"

// Config holds all application configuration.
type Config struct {
	API   APIConfig   `mapstructure:"api"`
	User  UserConfig  `mapstructure:"user"`
	Study StudyConfig `mapstructure:"study"`
	Audio AudioConfig `mapstructure:"audio"`
	LLM   LLMConfig   `mapstructure:"llm"`
	Log   LogConfig   `mapstructure:"log"`
	DB    DBConfig    `mapstructure:"db"`
}

// APIConfig configures the backend client. An empty BaseURL runs offline.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string        `mapstructure:"token"`
}

// UserConfig identifies the learner.
type UserConfig struct {
	ID string `mapstructure:"id"`
}

// StudyConfig holds question fetch defaults.
type StudyConfig struct {
	Difficulty    string   `mapstructure:"difficulty"`
	Count         int      `mapstructure:"count"`
	MajorCategory string   `mapstructure:"major_category"`
	Topics        []string `mapstructure:"topics"`
}

// AudioConfig names the external recorder and player.
type AudioConfig struct {
	RecordCommand string `mapstructure:"record_command"`
	PlayCommand   string `mapstructure:"play_command"`
}

// LLMConfig configures the local question generator.
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Discover bool          `mapstructure:"discover"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	Console bool   `mapstructure:"console"`
}

// DBConfig locates the local event store.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.token", "")
	v.SetDefault("user.id", "")
	v.SetDefault("study.difficulty", string(question.Beginner))
	v.SetDefault("study.count", 5)
	v.SetDefault("study.major_category", "")
	v.SetDefault("study.topics", []string{})
	v.SetDefault("audio.record_command", "arecord -q -f S16_LE -r 16000 -c 1 -t wav")
	v.SetDefault("audio.play_command", "aplay -q")
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.discover", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.console", false)
	v.SetDefault("db.path", "")
}

// Dir returns the directory searched for config.yaml and .env:
// $XDG_CONFIG_HOME/studyup, falling back to ~/.config/studyup.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "studyup"), nil
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml is looked up in Dir() and the working directory and may be
// absent.
func Load(path string) (*Config, error) {
	dir, dirErr := Dir()
	loadDotEnv(".env")
	if dirErr == nil {
		loadDotEnv(filepath.Join(dir, ".env"))
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		if dirErr == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads a .env file without overriding variables already set.
// A missing file is not an error.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

// resolve fills derived fields and validates.
func (c *Config) resolve() error {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.User.ID == "" && c.API.Token != "" {
		if id, err := UserIDFromToken(c.API.Token); err == nil {
			c.User.ID = id
		}
	}
	if _, err := question.ParseDifficulty(c.Study.Difficulty); err != nil {
		return fmt.Errorf("study.difficulty: %w", err)
	}
	if c.Study.Count < 1 {
		return fmt.Errorf("study.count must be positive, got %d", c.Study.Count)
	}
	return c.LLMConfig().Validate()
}

// Online reports whether a backend is configured.
func (c *Config) Online() bool {
	return c.API.BaseURL != ""
}

// Difficulty returns the parsed default difficulty.
func (c *Config) Difficulty() question.Difficulty {
	d, err := question.ParseDifficulty(c.Study.Difficulty)
	if err != nil {
		return question.Beginner
	}
	return d
}

// FetchContext returns the study filters for difficulty d.
func (c *Config) FetchContext(d question.Difficulty) question.FetchContext {
	return question.FetchContext{
		Difficulty:    d,
		MajorCategory: c.Study.MajorCategory,
		Topics:        append([]string(nil), c.Study.Topics...),
	}
}

// APIClientConfig converts to the api client's config.
func (c *Config) APIClientConfig() api.Config {
	return api.Config{BaseURL: c.API.BaseURL, Timeout: c.API.Timeout, Token: c.API.Token}
}

// LLMConfig converts to the llm package config. With discover enabled an
// unset provider is taken from the vendors' standard API key variables.
func (c *Config) LLMConfig() llm.Config {
	out := llm.DefaultConfig()
	out.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	out.APIKey = c.LLM.APIKey
	out.Model = c.LLM.Model
	out.BaseURL = c.LLM.BaseURL
	if c.LLM.Timeout > 0 {
		out.Timeout = c.LLM.Timeout
	}
	if c.LLM.Discover {
		out.Discover()
	}
	return out
}
