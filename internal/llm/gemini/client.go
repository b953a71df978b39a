package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"talentgate/interview/internal/llm"
	"talentgate/interview/internal/models"
)

// Client is the Gemini-backed oracle gateway.
type Client struct {
	client *genai.Client
	config *Config
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	return &Client{
		client: client,
		config: config,
	}, nil
}

// GenerateText sends the conversation and returns the raw textual reply.
// Used for the opening interview question, which is plain text by contract.
func (c *Client) GenerateText(ctx context.Context, messages []models.Message) (string, error) {
	return c.generate(ctx, messages, nil)
}

// GenerateJSON sends the conversation with a JSON-only response directive.
// The reply is returned as the raw string; shape validation is the caller's
// concern since the fallback policy differs per call site.
func (c *Client) GenerateJSON(ctx context.Context, messages []models.Message) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	return c.generate(ctx, messages, cfg)
}

func (c *Client) generate(ctx context.Context, messages []models.Message, cfg *genai.GenerateContentConfig) (string, error) {
	system, contents := splitConversation(messages)
	if len(contents) == 0 {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeEmptyResponse,
			Message:  "Conversation contains no user or assistant turns",
		}
	}

	if system != "" {
		if cfg == nil {
			cfg = &genai.GenerateContentConfig{}
		}
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	result, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, cfg)
	if err != nil {
		code := llm.ErrCodeServiceDown
		if errors.Is(err, context.DeadlineExceeded) {
			code = llm.ErrCodeTimeout
		}
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     code,
			Message:  "Failed to generate content",
			Err:      err,
		}
	}

	text := collectText(result)
	if text == "" {
		return "", &llm.ProviderError{
			Provider: "gemini",
			Code:     llm.ErrCodeEmptyResponse,
			Message:  "Empty response generated",
		}
	}

	return text, nil
}

// splitConversation maps role-tagged history onto the Gemini wire model: the
// leading system message becomes the system instruction, assistant turns
// become model turns.
func splitConversation(messages []models.Message) (string, []*genai.Content) {
	var system string
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			if system == "" {
				system = msg.Content
			} else {
				system += "\n\n" + msg.Content
			}
		case models.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	// The opening-question call carries only the system prompt; Gemini still
	// needs at least one user turn to respond to.
	if len(contents) == 0 && system != "" {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: "Begin."}},
		})
	}

	return system, contents
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(strings.TrimSpace(part.Text))
		}
	}

	return strings.TrimSpace(builder.String())
}

func (c *Client) GetProviderName() string {
	return "gemini"
}
