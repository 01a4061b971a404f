package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults match the managed resources the service was originally deployed
// against.
const (
	DefaultRegion  = "us-east-1"
	DefaultModelID = "us.amazon.nova-pro-v1:0"
	DefaultTable   = "ChatbotConversations"
	DefaultPort    = "8080"
)

// Config holds all process configuration, read once at startup.
type Config struct {
	Region      string
	ModelID     string
	TableName   string
	Port        string
	ParamPrefix string
	CORSOrigins []string
}

// Load reads configuration from the environment, optionally seeded from a
// .env file (path overridable via ENV_FILE). A missing .env file is fine;
// environment variables win either way.
func Load() Config {
	envFile := ".env"
	if v := os.Getenv("ENV_FILE"); v != "" {
		envFile = v
	}
	_ = godotenv.Load(envFile)

	return Config{
		Region:      getWithDefault("AWS_REGION", DefaultRegion),
		ModelID:     getWithDefault("BEDROCK_MODEL_ID", DefaultModelID),
		TableName:   getWithDefault("DYNAMODB_TABLE_NAME", DefaultTable),
		Port:        getWithDefault("API_PORT", DefaultPort),
		ParamPrefix: strings.TrimSpace(os.Getenv("PARAM_PREFIX")),
		CORSOrigins: splitOrigins(getWithDefault("CORS_ALLOWED_ORIGINS", "*")),
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getWithDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
