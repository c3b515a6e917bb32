package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"jokebot/internal/fulfillment"
)

type Config struct {
	Port string `env:"PORT" envDefault:"53705"`

	// WebhookAuth guards the webhook with basic auth; the password is the
	// single line in TokenFile, which must then exist.
	WebhookAuth bool   `env:"WEBHOOK_AUTH" envDefault:"false"`
	TokenFile   string `env:"TOKEN_FILE" envDefault:"token.secret"`
	WebhookUser string `env:"WEBHOOK_USER" envDefault:"dialogflow"`

	// IntentsFile optionally overrides the intent bindings (YAML).
	IntentsFile string `env:"INTENTS_FILE"`

	JokeAPIURL     string        `env:"JOKE_API_URL" envDefault:"https://v2.jokeapi.dev"`
	JokeAPITimeout time.Duration `env:"JOKE_API_TIMEOUT" envDefault:"5s"`

	// Dialogflow, used by the detect command and the voice channel
	DialogflowProjectID   string `env:"DIALOGFLOW_PROJECT_ID"`
	DialogflowCredentials string `env:"DIALOGFLOW_CREDENTIALS"`
	DialogflowLanguage    string `env:"DIALOGFLOW_LANGUAGE" envDefault:"en-US"`

	// Twilio voice channel
	VoiceEnabled     bool   `env:"VOICE_ENABLED" envDefault:"false"`
	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
}

func (c Config) Addr() string {
	return ":" + c.Port
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.VoiceEnabled {
		if cfg.DialogflowProjectID == "" {
			return Config{}, errors.New("VOICE_ENABLED requires DIALOGFLOW_PROJECT_ID")
		}
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
			log.Println("warning: TWILIO_ACCOUNT_SID/TWILIO_AUTH_TOKEN not set; call redirects will fail")
		}
	}
	return cfg, nil
}

// LoadToken reads a single-line secret from path. A missing or empty file
// is an error.
func LoadToken(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}

// LoadBindings returns the default bindings overlaid with path, if set.
func LoadBindings(path string) (fulfillment.Bindings, error) {
	b := fulfillment.DefaultBindings()
	if path == "" {
		return b, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("failed to read intents file: %w", err)
	}
	var file fulfillment.Bindings
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return b, fmt.Errorf("failed to parse intents file %s: %w", path, err)
	}
	b = file.WithDefaults()
	if err := b.Validate(); err != nil {
		return b, fmt.Errorf("invalid intents file %s: %w", path, err)
	}
	return b, nil
}
