package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"bedrock-chatbot/internal/domain"
)

// timestampFormat is the sort-key encoding. The fractional second is
// fixed-width so lexicographic order equals chronological order; a trimmed
// encoding would sort "…05.1Z" after "…05.12Z".
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// dynamodbAPI is the minimal DynamoDB interface required by Store.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store wraps a DynamoDB table holding conversation history, one item per
// turn, keyed by session id (partition) and timestamp (sort).
type Store struct {
	api       dynamodbAPI
	tableName string
}

// New creates a Store over the given table.
func New(api dynamodbAPI, tableName string) (*Store, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Store{api: api, tableName: tableName}, nil
}

// Append writes one turn for a session.
func (s *Store) Append(ctx context.Context, sessionID string, turn domain.Turn) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("repository: Append: session id must not be empty")
	}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      turnItem(sessionID, turn),
	})
	if err != nil {
		return fmt.Errorf("repository: Append: %w", err)
	}
	return nil
}

// Query returns all persisted turns for a session in timestamp order. An
// unknown session id yields an empty slice, not an error.
func (s *Store) Query(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("SessionId = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: sessionID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: Query: %w", err)
	}

	turns := make([]domain.Turn, 0, len(out.Items))
	for _, item := range out.Items {
		turn, err := itemToTurn(item)
		if err != nil {
			return nil, fmt.Errorf("repository: Query unmarshal: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func turnItem(sessionID string, turn domain.Turn) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"SessionId": &types.AttributeValueMemberS{Value: sessionID},
		"Timestamp": &types.AttributeValueMemberS{Value: turn.Timestamp.UTC().Format(timestampFormat)},
		"MessageId": &types.AttributeValueMemberS{Value: turn.ID},
		"Role":      &types.AttributeValueMemberS{Value: string(turn.Role)},
		"Content":   &types.AttributeValueMemberS{Value: turn.Content},
	}
}

func itemToTurn(item map[string]types.AttributeValue) (domain.Turn, error) {
	ts, err := strAttr(item, "Timestamp")
	if err != nil {
		return domain.Turn{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("repository: parse timestamp %q: %w", ts, err)
	}
	id, err := strAttr(item, "MessageId")
	if err != nil {
		return domain.Turn{}, err
	}
	role, err := strAttr(item, "Role")
	if err != nil {
		return domain.Turn{}, err
	}
	content, err := strAttr(item, "Content")
	if err != nil {
		return domain.Turn{}, err
	}

	return domain.Turn{
		ID:        id,
		Role:      domain.Role(role),
		Content:   content,
		Timestamp: parsed,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
