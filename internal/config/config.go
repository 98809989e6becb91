// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultHubURL is the Google-operated PubSubHubbub hub endpoint.
const DefaultHubURL = "https://pubsubhubbub.appspot.com/subscribe"

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	NotifyChatID     int64
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64

	// CallbackURL is the public base URL of this server; the hub delivers
	// notifications to <CallbackURL>/webhook/youtube.
	CallbackURL string
	ListenAddr  string
	HubURL      string

	YouTubeAPIKey  string
	DebugChannelID string

	// VideoAgeLimit bounds how old an announced video may be before it is
	// dropped. MissingWindow bounds how far back the catch-up lookup goes;
	// the two are deliberately independent knobs.
	VideoAgeLimit time.Duration
	MissingWindow time.Duration
}

// Load reads configuration from the environment, first merging in a .env
// file if one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	chatID, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required and must be an integer: %w", err)
	}

	callback := strings.TrimRight(os.Getenv("CALLBACK_URL"), "/")
	if callback == "" {
		return nil, fmt.Errorf("CALLBACK_URL is required")
	}

	apiKey := os.Getenv("YOUTUBE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":5000"
	}

	hubURL := os.Getenv("HUB_URL")
	if hubURL == "" {
		hubURL = DefaultHubURL
	}

	ageLimitDays, err := intEnv("VIDEO_AGE_LIMIT_DAYS", 100)
	if err != nil {
		return nil, err
	}

	missingHours, err := intEnv("MISSING_WINDOW_HOURS", 24)
	if err != nil {
		return nil, err
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	return &Config{
		TelegramBotToken: token,
		NotifyChatID:     chatID,
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		AllowedUsers:     allowedUsers,
		CallbackURL:      callback,
		ListenAddr:       listenAddr,
		HubURL:           hubURL,
		YouTubeAPIKey:    apiKey,
		DebugChannelID:   os.Getenv("DEBUG_CHANNEL"),
		VideoAgeLimit:    time.Duration(ageLimitDays) * 24 * time.Hour,
		MissingWindow:    time.Duration(missingHours) * time.Hour,
	}, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return v, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
