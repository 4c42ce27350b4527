package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress    string
	GroqKey        string
	GroqModelID    string
	AssemblyAIKey  string
	EdgeTTSURL     string
	DeepgramKey    string
	DeepgramModel  string
	SQLitePath     string
	LogLevel       string
	AllowedOrigins []string
}

// Load reads environment variables and returns Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded")
	}

	cfg := Config{
		HTTPAddress:   getEnv("HTTP_ADDRESS", ":8080"),
		GroqKey:       os.Getenv("GROQ_API_KEY"),
		GroqModelID:   getEnv("GROQ_MODEL_ID", "llama-3.3-70b-versatile"),
		AssemblyAIKey: os.Getenv("ASSEMBLYAI_API_KEY"),
		EdgeTTSURL:    os.Getenv("EDGE_TTS_URL"),
		DeepgramKey:   os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramModel: getEnv("DEEPGRAM_MODEL", "aura-2-thalia-en"),
		SQLitePath:    getEnv("SQLITE_PATH", "honeypot.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if cfg.GroqKey == "" {
		logrus.Warn("GROQ_API_KEY not set - dialogue and model extraction will not work")
	}
	if cfg.AssemblyAIKey == "" {
		logrus.Warn("ASSEMBLYAI_API_KEY not set - live transcription will not work")
	}
	if cfg.EdgeTTSURL == "" && cfg.DeepgramKey == "" {
		logrus.Warn("no TTS backend configured - speech synthesis will not work")
	}

	logrus.WithField("address", cfg.HTTPAddress).Info("configuration loaded")
	return cfg
}

// ParseLevel maps the configured log level onto a logrus level, defaulting
// to info on garbage input.
func (c Config) ParseLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
