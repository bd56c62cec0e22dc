package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/euonia/pkg/adapter"
	"github.com/m-mizutani/gt"
	"google.golang.org/genai"
)

func newTestGemini(t *testing.T) *adapter.GeminiClient {
	ctx := context.Background()

	if apiKey := os.Getenv("TEST_GEMINI_API_KEY"); apiKey != "" {
		client, err := adapter.NewGeminiWithAPIKey(ctx, apiKey)
		gt.NoError(t, err)
		return client
	}

	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_API_KEY or TEST_GEMINI_PROJECT is not set")
	}

	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)
	return client
}

func TestGenerateContent(t *testing.T) {
	client := newTestGemini(t)

	contents := []*genai.Content{
		genai.NewContentFromText("Hello, what is the capital of France?", genai.RoleUser),
	}

	resp, err := client.GenerateContent(context.Background(), "", contents, nil)
	gt.NoError(t, err)

	if resp == nil ||
		len(resp.Candidates) == 0 ||
		resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 ||
		resp.Candidates[0].Content.Parts[0].Text == "" {
		t.Fatal("unexpected response")
	}

	t.Log("response:", resp.Candidates[0].Content.Parts[0].Text)
}

func TestGenerateContentFunctionCall(t *testing.T) {
	client := newTestGemini(t)

	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{
				FunctionDeclarations: []*genai.FunctionDeclaration{
					{
						Name:        "get_goals",
						Description: "Retrieve goals from a specified previous amount of days.",
						Parameters: &genai.Schema{
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"days": {Type: genai.TypeNumber},
							},
							Required: []string{"days"},
						},
					},
				},
			},
		},
	}

	contents := []*genai.Content{
		genai.NewContentFromText("Use get_goals to list my goals from the last 3 days.", genai.RoleUser),
	}

	resp, err := client.GenerateContent(context.Background(), "", contents, config)
	gt.NoError(t, err)
	gt.A(t, resp.FunctionCalls()).Longer(0)
	gt.Equal(t, resp.FunctionCalls()[0].Name, "get_goals")
}
