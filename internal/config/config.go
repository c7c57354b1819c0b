// Package config loads process configuration from config.yaml and
// ONYX_-prefixed environment variables. API keys are sourced from the
// environment (directly or via ${VAR} substitution in the yaml), never
// from literals in source.
package config

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Agent      AgentConfig      `koanf:"agent"`
	Deepgram   DeepgramConfig   `koanf:"deepgram"`
	OpenAI     OpenAIConfig     `koanf:"openai"`
	ElevenLabs ElevenLabsConfig `koanf:"elevenlabs"`
	Cache      CacheConfig      `koanf:"cache"`
	CallLog    CallLogConfig    `koanf:"call_log"`
	Timeouts   TimeoutConfig    `koanf:"timeouts"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// PublicHost is the externally reachable host used to build the
	// wss:// stream URL in the call-setup response.
	PublicHost string `koanf:"public_host"`
}

type AgentConfig struct {
	// SystemPrompt seeds every session's transcript.
	SystemPrompt string `koanf:"system_prompt"`
	// SayVoice is the telephony-layer voice used for the greeting line.
	SayVoice string `koanf:"say_voice"`
}

type DeepgramConfig struct {
	APIKey string `koanf:"api_key"`
}

type OpenAIConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
	// TokenBudget bounds the prompt sent to the completion model.
	// Zero disables trimming.
	TokenBudget int `koanf:"token_budget"`
}

type ElevenLabsConfig struct {
	APIKey  string `koanf:"api_key"`
	VoiceID string `koanf:"voice_id"`
}

type CacheConfig struct {
	Path string `koanf:"path"`
}

type CallLogConfig struct {
	// Path of the sqlite call log. Empty disables call recording.
	Path string `koanf:"path"`
}

// TimeoutConfig holds per-adapter deadlines as duration strings ("10s").
type TimeoutConfig struct {
	Transcribe string `koanf:"transcribe"`
	Complete   string `koanf:"complete"`
	Synthesize string `koanf:"synthesize"`
}

// Duration parses s, returning fallback on empty or invalid input.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

const defaultSystemPrompt = `You are Onyx, a state-of-the-art AI sales agent:
- Persona: Charismatic, empathetic, consultative.
- Goal: Build rapport, qualify needs, pitch Apex AI marketing solutions.
- Tone: Human-like, slight humor, upbeat, never robotic.
- Behavior: Ask open-ended questions, handle objections gracefully.`

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml (if present) and applies ONYX_ environment
// overrides; ONYX_SERVER__PORT maps to server.port.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit file path.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars.
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("ONYX_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ONYX_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 3000)
	}
	if !k.Exists("agent.system_prompt") {
		k.Set("agent.system_prompt", defaultSystemPrompt)
	}
	if !k.Exists("agent.say_voice") {
		k.Set("agent.say_voice", "Polly.Matthew")
	}
	if !k.Exists("openai.model") {
		k.Set("openai.model", "gpt-4o")
	}
	if !k.Exists("cache.path") {
		k.Set("cache.path", "memory.json")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in secrets
	cfg.Deepgram.APIKey = substituteEnvVars(cfg.Deepgram.APIKey)
	cfg.OpenAI.APIKey = substituteEnvVars(cfg.OpenAI.APIKey)
	cfg.ElevenLabs.APIKey = substituteEnvVars(cfg.ElevenLabs.APIKey)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
