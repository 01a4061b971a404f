package bedrock

import (
	"context"
	"errors"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrock/types"

	"bedrock-chatbot/internal/domain"
)

// catalogAPI is the minimal Bedrock control-plane interface required by
// Catalog. *bedrock.Client satisfies it.
type catalogAPI interface {
	ListFoundationModels(ctx context.Context, in *bedrock.ListFoundationModelsInput, optFns ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error)
}

// Catalog lists foundation models available for text generation.
type Catalog struct {
	api catalogAPI
}

// NewCatalog creates a Catalog over the given Bedrock control-plane API.
func NewCatalog(api catalogAPI) (*Catalog, error) {
	if api == nil {
		return nil, errors.New("bedrock: catalog api must not be nil")
	}
	return &Catalog{api: api}, nil
}

// ListModels returns the text-output foundation models sorted by provider and
// name. When the control-plane call fails (model listing often needs extra
// IAM permissions) it falls back to the common Nova models and reports
// fallback=true so callers can note the list is partial.
func (c *Catalog) ListModels(ctx context.Context) (models []domain.ModelInfo, fallback bool, err error) {
	out, err := c.api.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{})
	if err != nil {
		return fallbackModels(), true, nil
	}

	models = make([]domain.ModelInfo, 0, len(out.ModelSummaries))
	for _, summary := range out.ModelSummaries {
		if !hasTextOutput(summary.OutputModalities) {
			continue
		}
		models = append(models, domain.ModelInfo{
			ID:               aws.ToString(summary.ModelId),
			Name:             aws.ToString(summary.ModelName),
			Provider:         aws.ToString(summary.ProviderName),
			InputModalities:  modalityStrings(summary.InputModalities),
			OutputModalities: modalityStrings(summary.OutputModalities),
			Status:           "available",
		})
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].Provider != models[j].Provider {
			return models[i].Provider < models[j].Provider
		}
		return models[i].Name < models[j].Name
	})
	return models, false, nil
}

func hasTextOutput(modalities []types.ModelModality) bool {
	for _, m := range modalities {
		if m == types.ModelModalityText {
			return true
		}
	}
	return false
}

func modalityStrings(modalities []types.ModelModality) []string {
	out := make([]string, 0, len(modalities))
	for _, m := range modalities {
		out = append(out, string(m))
	}
	return out
}

func fallbackModels() []domain.ModelInfo {
	return []domain.ModelInfo{
		{ID: "us.amazon.nova-pro-v1:0", Name: "Amazon Nova Pro", Provider: "Amazon"},
		{ID: "us.amazon.nova-lite-v1:0", Name: "Amazon Nova Lite", Provider: "Amazon"},
		{ID: "us.amazon.nova-micro-v1:0", Name: "Amazon Nova Micro", Provider: "Amazon"},
	}
}
