package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

type Config struct {
	ServerPort      string
	Environment     string
	FirebaseProject string
	StorageBucket   string

	ServiceAccountJSON string
	ServiceAccountPath string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	TriggerStream   string
	TriggerGroup    string
	TriggerConsumer string

	PushTitle            string
	ContactRatePerMinute int
	MessageRatePerMinute int
	MaxUploadMB          int64
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		StorageBucket:   getEnv("STORAGE_BUCKET", ""),

		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", "./serviceAccount.json"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		TriggerStream:   getEnv("TRIGGER_STREAM", "zorkdi:triggers"),
		TriggerGroup:    getEnv("TRIGGER_GROUP", "trigger-workers"),
		TriggerConsumer: getEnv("TRIGGER_CONSUMER", ""),

		PushTitle:            getEnv("PUSH_TITLE", "New message from ZORK DI"),
		ContactRatePerMinute: getEnvAsInt("CONTACT_RATE_PER_MINUTE", 5),
		MessageRatePerMinute: getEnvAsInt("MESSAGE_RATE_PER_MINUTE", 30),
		MaxUploadMB:          int64(getEnvAsInt("MAX_UPLOAD_MB", 5)),
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// CredentialsOption prefers the inline service account JSON over the file path.
func (c *Config) CredentialsOption() option.ClientOption {
	if c.ServiceAccountJSON != "" {
		return option.WithCredentialsJSON([]byte(c.ServiceAccountJSON))
	}
	return option.WithCredentialsFile(c.ServiceAccountPath)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
