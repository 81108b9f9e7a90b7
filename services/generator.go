package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// QuestionGenerator produces practice questions for a note's raw text.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, title, notes string) ([]string, error)
}

const (
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultQuestionCount = 5
	openAIEndpoint       = "https://api.openai.com/v1/chat/completions"
)

// OpenAIGenerator calls the chat-completions API and parses one question
// per line out of the reply.
type OpenAIGenerator struct {
	apiKey string
	model  string
	client *http.Client
}

func NewOpenAIGenerator() (*OpenAIGenerator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIGenerator{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *OpenAIGenerator) GenerateQuestions(ctx context.Context, title, notes string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Write %d practice questions for a student reviewing these study notes. Reply with one question per line and nothing else.\n\nTitle: %s\n\nNotes:\n%s",
		defaultQuestionCount, title, notes,
	)

	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call question generator: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read generator response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode generator response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("question generator error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("question generator returned status %d with no choices", resp.StatusCode)
	}

	questions := ParseQuestionLines(parsed.Choices[0].Message.Content)
	if len(questions) == 0 {
		return nil, fmt.Errorf("question generator returned no usable questions")
	}
	return questions, nil
}

// ParseQuestionLines splits model output into individual questions,
// stripping list numbering and bullets the model tends to add anyway.
func ParseQuestionLines(content string) []string {
	var questions []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		// Strip leading "3." / "3)" style numbering.
		if i := strings.IndexAny(line, ".)"); i > 0 && i <= 3 {
			if _, err := fmt.Sscanf(line[:i], "%d", new(int)); err == nil {
				line = strings.TrimSpace(line[i+1:])
			}
		}
		if line == "" {
			continue
		}
		questions = append(questions, line)
	}
	return questions
}
