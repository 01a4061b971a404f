package main

import (
	"context"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsbedrock "github.com/aws/aws-sdk-go-v2/service/bedrock"
	awsbedrockruntime "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"bedrock-chatbot/internal/chat"
	"bedrock-chatbot/internal/config"
	"bedrock-chatbot/internal/httpapi"
	"bedrock-chatbot/internal/integrations/bedrock"
	"bedrock-chatbot/internal/integrations/paramstore"
	"bedrock-chatbot/internal/repository"
	"bedrock-chatbot/internal/telemetry"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg := config.Load()

	// ---- Logging & telemetry ----
	logger, err := telemetry.InitLogger("logs")
	if err != nil {
		slog.Error("failed to init logger", "err", err)
		os.Exit(1)
	}
	tracer, meter, shutdownTelemetry, err := telemetry.InitTelemetry(ctx, "logs")
	if err != nil {
		fatal(logger, "failed to init telemetry", err)
	}
	defer shutdownTelemetry()

	// ---- AWS SDK config ----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		fatal(logger, "failed to load AWS config", err)
	}

	// ---- Clients ----
	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName)
	if err != nil {
		fatal(logger, "failed to create history store", err)
	}
	llm, err := bedrock.NewClient(awsbedrockruntime.NewFromConfig(awsCfg))
	if err != nil {
		fatal(logger, "failed to create bedrock client", err)
	}
	catalog, err := bedrock.NewCatalog(awsbedrock.NewFromConfig(awsCfg))
	if err != nil {
		fatal(logger, "failed to create model catalog", err)
	}

	settings := chat.Settings{Region: cfg.Region, DefaultModel: cfg.ModelID}
	if cfg.ParamPrefix != "" {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			fatal(logger, "failed to create SSM client", err)
		}
		overrides, err := paramstore.LoadOverrides(ctx, ssmClient, cfg.ParamPrefix)
		if err != nil {
			fatal(logger, "failed to load parameter overrides", err)
		}
		if overrides.SystemPrompt != "" {
			settings.SystemPrompt = overrides.SystemPrompt
		}
		if overrides.ModelID != "" {
			settings.DefaultModel = overrides.ModelID
		}
	}

	// ---- Conversation core & server ----
	registry, err := chat.NewRegistry(llm, store, settings, logger)
	if err != nil {
		fatal(logger, "failed to create session registry", err)
	}
	server, err := httpapi.NewServer(registry, catalog, httpapi.Options{
		Region:       cfg.Region,
		DefaultModel: settings.DefaultModel,
		Logger:       logger,
		Tracer:       tracer,
		Meter:        meter,
	})
	if err != nil {
		fatal(logger, "failed to create server", err)
	}

	logger.Info("starting chatbot api",
		"port", cfg.Port,
		"region", cfg.Region,
		"model", settings.DefaultModel,
		"table", cfg.TableName,
	)
	if err := server.Engine(cfg.CORSOrigins).Run(":" + cfg.Port); err != nil {
		fatal(logger, "server exited", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
