package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	for _, key := range []string{"AWS_REGION", "BEDROCK_MODEL_ID", "DYNAMODB_TABLE_NAME", "API_PORT", "PARAM_PREFIX", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, DefaultRegion, cfg.Region)
	require.Equal(t, DefaultModelID, cfg.ModelID)
	require.Equal(t, DefaultTable, cfg.TableName)
	require.Equal(t, DefaultPort, cfg.Port)
	require.Empty(t, cfg.ParamPrefix)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("BEDROCK_MODEL_ID", "anthropic.claude-3-sonnet-20240229-v1:0")
	t.Setenv("DYNAMODB_TABLE_NAME", "MyTable")
	t.Setenv("API_PORT", "9000")
	t.Setenv("PARAM_PREFIX", "/chatbot")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	require.Equal(t, "eu-west-1", cfg.Region)
	require.Equal(t, "anthropic.claude-3-sonnet-20240229-v1:0", cfg.ModelID)
	require.Equal(t, "MyTable", cfg.TableName)
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "/chatbot", cfg.ParamPrefix)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_CORSOriginsAreTrimmed(t *testing.T) {
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example ,, https://b.example ")

	cfg := Load()
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}
