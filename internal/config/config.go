// Package config provides the configuration structure for the voicebot service.
package config

import (
	"errors"
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/kelseyhightower/envconfig"
)

// Validation errors.
var (
	ErrBaseURLRequired         = errors.New("http base_url is required for telephony webhooks")
	ErrGroqAPIKeyRequired      = errors.New("groq api key is required (GROQ_API_KEY)")
	ErrSignalWireSpaceRequired = errors.New("signalwire space url is required")
)

// Defaults applied when the TOML file leaves a field unset.
const (
	defaultBind        = "0.0.0.0:5000"
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.1-8b-instant"
	defaultTTSLanguage = "bn"
	// A target of 0 dBFS would drive speech into clipping, so an unset
	// target always falls back to the standard loudness.
	defaultTTSTargetDBFS = -16.0
	defaultTTSFadeInMs   = 20
	defaultTTSFadeOutMs  = 50
)

// HTTPConfig holds the configuration for the REST API.
type HTTPConfig struct {
	Bind string `toml:"bind"`
	// BaseURL is the public address SignalWire uses to reach the webhook
	// endpoints, e.g. "https://bot.example.com".
	BaseURL string `toml:"base_url" envconfig:"BASE_URL"`
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                     string `toml:"url"`
	OrderCreatedSubject     string `toml:"order_created_subject"`
	ScriptAudioReadySubject string `toml:"script_audio_ready_subject"`
	AudioObjectStoreBucket  string `toml:"audio_object_store_bucket"`
}

// TTSConfig holds the configuration for the speech synthesis sidecar.
type TTSConfig struct {
	ServiceURL     string  `toml:"service_url"`
	Language       string  `toml:"language"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	TargetDBFS     float64 `toml:"target_dbfs"`
	FadeInMillis   int     `toml:"fade_in_ms"`
	FadeOutMillis  int     `toml:"fade_out_ms"`
}

// GroqConfig holds the configuration for the Groq chat-completions API.
type GroqConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	APIKey         string `toml:"-" envconfig:"GROQ_API_KEY"`
}

// SignalWireConfig holds the configuration for outbound call origination.
type SignalWireConfig struct {
	SpaceURL  string `toml:"space_url" envconfig:"SIGNALWIRE_SPACE_URL"`
	ProjectID string `toml:"-" envconfig:"SIGNALWIRE_PROJECT_ID"`
	APIToken  string `toml:"-" envconfig:"SIGNALWIRE_API_TOKEN"`
	CallerID  string `toml:"caller_id" envconfig:"SIGNALWIRE_CALLER_ID"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	HTTP       HTTPConfig       `toml:"http"`
	NATS       NATSConfig       `toml:"nats"`
	TTS        TTSConfig        `toml:"tts"`
	Groq       GroqConfig       `toml:"groq"`
	SignalWire SignalWireConfig `toml:"signalwire"`
	Paths      PathsConfig      `toml:"paths"`
}

// Load loads the configuration for the voicebot service. Values come from the
// project TOML file via the central configurator; credentials and the public
// base URL may be overridden from the environment.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	err = envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = defaultBind
	}

	if c.Groq.BaseURL == "" {
		c.Groq.BaseURL = defaultGroqBaseURL
	}

	if c.Groq.Model == "" {
		c.Groq.Model = defaultGroqModel
	}

	if c.TTS.Language == "" {
		c.TTS.Language = defaultTTSLanguage
	}

	if c.TTS.TargetDBFS == 0 {
		c.TTS.TargetDBFS = defaultTTSTargetDBFS
	}

	if c.TTS.FadeInMillis == 0 {
		c.TTS.FadeInMillis = defaultTTSFadeInMs
	}

	if c.TTS.FadeOutMillis == 0 {
		c.TTS.FadeOutMillis = defaultTTSFadeOutMs
	}
}

// Validate checks that the fields required at runtime are present.
func (c *Config) Validate() error {
	if c.HTTP.BaseURL == "" {
		return ErrBaseURLRequired
	}

	if c.Groq.APIKey == "" {
		return ErrGroqAPIKeyRequired
	}

	if c.SignalWire.SpaceURL == "" {
		return ErrSignalWireSpaceRequired
	}

	return nil
}
