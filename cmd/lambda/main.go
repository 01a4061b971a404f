package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsbedrockruntime "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"bedrock-chatbot/handler"
	"bedrock-chatbot/internal/chat"
	"bedrock-chatbot/internal/config"
	"bedrock-chatbot/internal/integrations/bedrock"
	"bedrock-chatbot/internal/integrations/paramstore"
	"bedrock-chatbot/internal/repository"
)

// The registry is built once per execution environment so warm invocations
// reuse live sessions, matching the container-scoped instance cache of the
// original deployment.
func main() {
	ctx := context.Background()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		fatal(logger, "failed to load AWS config", err)
	}

	store, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.TableName)
	if err != nil {
		fatal(logger, "failed to create history store", err)
	}
	llm, err := bedrock.NewClient(awsbedrockruntime.NewFromConfig(awsCfg))
	if err != nil {
		fatal(logger, "failed to create bedrock client", err)
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

	registry, err := chat.NewRegistry(llm, store, settings, logger)
	if err != nil {
		fatal(logger, "failed to create session registry", err)
	}

	h, err := handler.NewHandler(registry)
	if err != nil {
		fatal(logger, "failed to create handler", err)
	}

	lambda.Start(h.Handle)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
