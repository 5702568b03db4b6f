package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

// Client holds the settings of the terminal client.
type Client struct {
	APIURL      string
	HTTPTimeout time.Duration
	StatePath   string // INI file with the stored token and optional [Settings]
	LogLevel    string
	LogFile     string // empty: logs are discarded, the TUI owns the terminal
}

// Server holds the settings of the reference API server.
type Server struct {
	Env             string
	Addr            string
	DBPath          string
	JWTSecret       string
	TokenTTL        time.Duration
	WordsFile       string
	ClientOrigin    string
	LogLevel        string
	ShutdownTimeout time.Duration
	RoundTTL        time.Duration // unfinished rounds older than this count as lost
}

const devSecret = "dev_secret_change_me"

// LoadClient reads .env, the environment and the [Settings] section of the
// state file. Environment variables win over the state file.
func LoadClient() (Client, error) {
	_ = godotenv.Load()

	var c Client
	c.StatePath = envString("MOTUS_STATE", defaultStatePath())
	c.APIURL = "http://localhost:8080"
	if s, err := ini.LoadSources(ini.LoadOptions{Loose: true}, c.StatePath); err == nil {
		if v := s.Section("Settings").Key("ApiURL").String(); v != "" {
			c.APIURL = v
		}
	}
	c.APIURL = envString("MOTUS_API_URL", c.APIURL)
	c.HTTPTimeout = envDuration("MOTUS_HTTP_TIMEOUT", 10*time.Second)
	c.LogLevel = envString("LOG_LEVEL", "info")
	c.LogFile = os.Getenv("LOG_FILE")

	if c.APIURL == "" {
		return Client{}, errors.New("MOTUS_API_URL is empty")
	}
	return c, nil
}

// LoadServer reads .env and the environment.
func LoadServer() (Server, error) {
	_ = godotenv.Load()

	var c Server
	c.Env = envString("APP_ENV", "dev")
	c.Addr = envString("HTTP_ADDR", ":"+envString("PORT", "8080"))
	c.DBPath = envString("DB_PATH", "./data/motus.db")
	c.JWTSecret = envString("JWT_SECRET", devSecret)
	c.TokenTTL = time.Duration(envInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour
	c.WordsFile = os.Getenv("WORDS_FILE")
	c.ClientOrigin = envString("CLIENT_ORIGIN", "http://localhost:3000")
	c.LogLevel = envString("LOG_LEVEL", "info")
	c.ShutdownTimeout = envDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	c.RoundTTL = envDuration("ROUND_TTL", 24*time.Hour)

	if c.Env != "dev" && c.JWTSecret == devSecret {
		return Server{}, fmt.Errorf("refuse to run with default JWT_SECRET in %s", c.Env)
	}
	if c.TokenTTL <= 0 {
		return Server{}, errors.New("JWT_EXPIRES_DAYS must be positive")
	}
	if c.RoundTTL <= 0 {
		return Server{}, errors.New("ROUND_TTL must be positive")
	}
	return c, nil
}

// SetupLogging sets the global zerolog level and writer. The returned closer
// releases the log file, if one was opened.
func SetupLogging(level, file string, fallback io.Writer) (io.Closer, error) {
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	w := fallback
	var closer io.Closer = io.NopCloser(nil)
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return closer, nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "motus.ini"
	}
	return filepath.Join(dir, "motus", "motus.ini")
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
