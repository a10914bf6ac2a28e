package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

type Config struct {
	ServerPort           string `json:"server_port"`
	DatabasePath         string `json:"database_path"`
	PhotoDir             string `json:"photo_dir"`
	BaseURL              string `json:"base_url"`
	JWTSecret            string `json:"jwt_secret"`
	Production           bool   `json:"production"`
	SessionDurationHours int    `json:"session_duration_hours"`
	InviteDurationHours  int    `json:"invite_duration_hours"`
	OTPDurationMinutes   int    `json:"otp_duration_minutes"`
	// DevEchoOTP returns the one-time code in the send response instead of
	// delivering it over SMS. Never enable in production.
	DevEchoOTP bool `json:"dev_echo_otp"`
}

var (
	instance *Config
	once     sync.Once
)

func generateSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}

func getConfigPath() string {
	configDir := os.Getenv("HABITPACT_CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			configDir = "."
		} else {
			configDir = filepath.Join(homeDir, ".habitpact")
		}
	}
	return filepath.Join(configDir, "config.json")
}

func GetConfig() *Config {
	once.Do(func() {
		instance = &Config{
			ServerPort:   "8080",
			DatabasePath: "",
			PhotoDir:     "",
			BaseURL:      "http://localhost:8080",
			JWTSecret:    "",
			Production:   false,
		}

		configPath := getConfigPath()

		// Try to load existing config
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, instance); err != nil {
				// Config file is corrupted, will use defaults
			}
		}

		// Set defaults
		if instance.SessionDurationHours == 0 {
			instance.SessionDurationHours = 24
		}
		if instance.InviteDurationHours == 0 {
			instance.InviteDurationHours = 24
		}
		if instance.OTPDurationMinutes == 0 {
			instance.OTPDurationMinutes = 5
		}

		// Generate secrets and derive paths if not set
		needsSave := false
		if instance.JWTSecret == "" {
			instance.JWTSecret = generateSecret(32)
			needsSave = true
		}
		configDir := filepath.Dir(configPath)
		if instance.DatabasePath == "" {
			instance.DatabasePath = filepath.Join(configDir, "habitpact.db")
			needsSave = true
		}
		if instance.PhotoDir == "" {
			instance.PhotoDir = filepath.Join(configDir, "photos")
			needsSave = true
		}

		// Override with environment variables
		if port := os.Getenv("HABITPACT_PORT"); port != "" {
			instance.ServerPort = port
		}
		if dbPath := os.Getenv("HABITPACT_DB_PATH"); dbPath != "" {
			instance.DatabasePath = dbPath
		}
		if photoDir := os.Getenv("HABITPACT_PHOTO_DIR"); photoDir != "" {
			instance.PhotoDir = photoDir
		}
		if baseURL := os.Getenv("HABITPACT_BASE_URL"); baseURL != "" {
			instance.BaseURL = baseURL
		}
		if os.Getenv("HABITPACT_PRODUCTION") == "true" {
			instance.Production = true
		}
		if os.Getenv("HABITPACT_DEV_ECHO_OTP") == "true" {
			instance.DevEchoOTP = true
		}

		// Save config if we generated new secrets
		if needsSave {
			instance.Save()
		}
	})

	return instance
}

func (c *Config) Save() error {
	configPath := getConfigPath()

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
