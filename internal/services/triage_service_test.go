package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/models"
)

func fakeOpenAI(t *testing.T, content string) *TriageService {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewTriageServiceWithConfig(cfg)
}

func TestTriage_NotConfigured(t *testing.T) {
	svc := NewTriageService("")
	assert.Nil(t, svc)

	_, err := svc.Suggest(context.Background(), "title", "desc")
	assertCode(t, err, apierrors.ErrCodeServiceUnavailable)
}

func TestTriage_ParsesSuggestion(t *testing.T) {
	svc := fakeOpenAI(t, "```json\n{\"priority\":\"critical\",\"type\":\"crash\",\"reason\":\"app closes\"}\n```")

	suggestion, err := svc.Suggest(context.Background(), "App crashes on start", "Opens and closes")
	require.NoError(t, err)
	assert.Equal(t, models.BugPriorityCritical, suggestion.Priority)
	assert.Equal(t, models.BugTypeCrash, suggestion.Type)
	assert.Equal(t, "app closes", suggestion.Reason)
}

func TestTriage_UnknownValuesAreExternalErrors(t *testing.T) {
	svc := fakeOpenAI(t, `{"priority":"urgent","type":"crash"}`)

	_, err := svc.Suggest(context.Background(), "t", "d")
	assertCode(t, err, apierrors.ErrCodeExternalService)
}

func TestTriage_ValidatesInput(t *testing.T) {
	svc := fakeOpenAI(t, `{}`)

	_, err := svc.Suggest(context.Background(), "", "d")
	assertCode(t, err, apierrors.ErrCodeValidation)
}
