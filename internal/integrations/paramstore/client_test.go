package paramstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a simple fake implementing ssmAPI for tests.
type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
	lastIn *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func paramOut(value string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p"), Value: strPtr(value)}}
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: paramOut("hello")}
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.GetParameter(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, "hello", v)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestGetParameter_EmptyName(t *testing.T) {
	client, err := New(&fakeAPI{})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "  ")
	require.Error(t, err)
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p")}}}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
}

func TestGetParameter_APIError(t *testing.T) {
	api := &fakeAPI{getErr: errors.New("throttled")}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), `"p"`)
}

// mapGetter serves LoadOverrides tests with per-name values and errors.
type mapGetter struct {
	vals map[string]string
	errs map[string]error
}

func (m *mapGetter) GetParameter(_ context.Context, name string) (string, error) {
	if err, ok := m.errs[name]; ok {
		return "", err
	}
	v, ok := m.vals[name]
	if !ok {
		return "", fmt.Errorf("get parameter %q: %w", name, &types.ParameterNotFound{})
	}
	return v, nil
}

func TestLoadOverrides_AllPresent(t *testing.T) {
	g := &mapGetter{vals: map[string]string{
		"/chatbot/system_prompt":   "Answer briefly.",
		"/chatbot/config/model_id": "us.amazon.nova-lite-v1:0",
	}}

	o, err := LoadOverrides(context.Background(), g, "/chatbot/")
	require.NoError(t, err)
	require.Equal(t, "Answer briefly.", o.SystemPrompt)
	require.Equal(t, "us.amazon.nova-lite-v1:0", o.ModelID)
}

func TestLoadOverrides_MissingParametersAreNotErrors(t *testing.T) {
	g := &mapGetter{vals: map[string]string{}}

	o, err := LoadOverrides(context.Background(), g, "/chatbot")
	require.NoError(t, err)
	require.Empty(t, o.SystemPrompt)
	require.Empty(t, o.ModelID)
}

func TestLoadOverrides_OtherErrorsPropagate(t *testing.T) {
	g := &mapGetter{errs: map[string]error{
		"/chatbot/system_prompt": errors.New("access denied"),
	}}

	_, err := LoadOverrides(context.Background(), g, "/chatbot")
	require.Error(t, err)
}

func TestLoadOverrides_Validates(t *testing.T) {
	_, err := LoadOverrides(context.Background(), nil, "/p")
	require.Error(t, err)
	_, err = LoadOverrides(context.Background(), &mapGetter{}, "  ")
	require.Error(t, err)
}
