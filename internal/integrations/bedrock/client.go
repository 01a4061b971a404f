package bedrock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"bedrock-chatbot/internal/domain"
)

const (
	defaultTemperature float32 = 0.7
	defaultMaxTokens   int32   = 2048
)

// converseAPI is the minimal Bedrock runtime interface required by Client.
// *bedrockruntime.Client satisfies it.
type converseAPI interface {
	Converse(ctx context.Context, in *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Client generates assistant replies through the Bedrock Converse API.
type Client struct {
	api         converseAPI
	temperature float32
	maxTokens   int32
}

type Option func(*Client)

func WithTemperature(t float32) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

func WithMaxTokens(n int32) Option {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// NewClient creates a Client over the given Bedrock runtime API.
func NewClient(api converseAPI, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, errors.New("bedrock: api must not be nil")
	}
	c := &Client{
		api:         api,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate sends the ordered transcript to the model and returns the
// assistant's text. System turns become Converse system blocks; user and
// assistant turns become ordered messages.
func (c *Client) Generate(ctx context.Context, model string, turns []domain.Turn) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", errors.New("bedrock: model must not be empty")
	}

	system, messages := splitTranscript(turns)
	if len(messages) == 0 {
		return "", errors.New("bedrock: transcript has no user or assistant turns")
	}

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:  aws.String(model),
		Messages: messages,
		System:   system,
		InferenceConfig: &brtypes.InferenceConfiguration{
			Temperature: aws.Float32(c.temperature),
			MaxTokens:   aws.Int32(c.maxTokens),
		},
	})
	if err != nil {
		return "", fmt.Errorf("bedrock: converse: %w", err)
	}

	return extractText(out)
}

func splitTranscript(turns []domain.Turn) ([]brtypes.SystemContentBlock, []brtypes.Message) {
	var system []brtypes.SystemContentBlock
	var messages []brtypes.Message

	for _, turn := range turns {
		switch turn.Role {
		case domain.RoleSystem:
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: turn.Content})
		case domain.RoleUser:
			messages = append(messages, textMessage(brtypes.ConversationRoleUser, turn.Content))
		case domain.RoleAssistant:
			messages = append(messages, textMessage(brtypes.ConversationRoleAssistant, turn.Content))
		}
	}
	return system, messages
}

func textMessage(role brtypes.ConversationRole, content string) brtypes.Message {
	return brtypes.Message{
		Role:    role,
		Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
	}
}

func extractText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("bedrock: empty converse output")
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("bedrock: unexpected output type %T", out.Output)
	}
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			return text.Value, nil
		}
	}
	return "", errors.New("bedrock: no text content in response")
}
