package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/qa-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/qa-tracker-api/internal/errors"
	"github.com/yukikurage/qa-tracker-api/internal/models"
)

// TriageService suggests a priority and type for a bug report using OpenAI.
type TriageService struct {
	client *openai.Client
}

// TriageSuggestion is the model's classification of a bug report
type TriageSuggestion struct {
	Priority models.BugPriority `json:"priority"`
	Type     models.BugType     `json:"type"`
	Reason   string             `json:"reason"`
}

// NewTriageService returns nil when apiKey is empty.
func NewTriageService(apiKey string) *TriageService {
	if apiKey == "" {
		return nil
	}
	return &TriageService{client: openai.NewClient(apiKey)}
}

// NewTriageServiceWithConfig allows pointing the client at another endpoint.
func NewTriageServiceWithConfig(cfg openai.ClientConfig) *TriageService {
	return &TriageService{client: openai.NewClientWithConfig(cfg)}
}

const triagePrompt = `You are a QA lead triaging bug reports for a mobile app.
Classify the report below.

Title: %s
Description:
%s

Reply with a single JSON object and nothing else:
{"priority": "critical|high|medium|low", "type": "ui|functionality|performance|crash|security|other", "reason": "one short sentence"}

Guidelines:
- critical: crashes, data loss, security holes, or the app is unusable
- high: a main feature is broken with no workaround
- medium: a feature misbehaves but a workaround exists
- low: cosmetic issues and typos`

// Suggest classifies a report. A nil service reports SERVICE_UNAVAILABLE.
func (s *TriageService) Suggest(ctx context.Context, title, description string) (*TriageSuggestion, error) {
	if s == nil || s.client == nil {
		return nil, apierrors.NewServiceUnavailableError("Bug triage is not configured")
	}

	var errs fieldErrors
	errs.requireText("title", title, constants.MaxTitleLength)
	validateDescription(&errs, description)
	if err := errs.err(); err != nil {
		return nil, err
	}

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: fmt.Sprintf(triagePrompt, title, description),
				},
			},
			Temperature: 0.2,
		},
	)
	if err != nil {
		return nil, apierrors.NewExternalServiceError(fmt.Sprintf("OpenAI API error: %v", err))
	}
	if len(resp.Choices) == 0 {
		return nil, apierrors.NewExternalServiceError("No response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var suggestion TriageSuggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &suggestion); err != nil {
		return nil, apierrors.NewExternalServiceError("Failed to parse triage response")
	}
	if !suggestion.Priority.IsValid() || !suggestion.Type.IsValid() {
		return nil, apierrors.NewExternalServiceError("Triage response has unknown priority or type")
	}

	return &suggestion, nil
}
