// Package gemini adapts the Google GenAI SDK to the embedding and generation
// ports.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/infrastructure/resilience"
)

// models is the subset of *genai.Models used here.
type models interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models     models
	genModel   string
	embedModel string
	executor   *resilience.Executor
}

func New(ctx context.Context, apiKey, genModel, embedModel string, executor *resilience.Executor) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newWithModels(client.Models, genModel, embedModel, executor), nil
}

func newWithModels(m models, genModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		models:     m,
		genModel:   genModel,
		embedModel: embedModel,
		executor:   executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Model() string {
	return "gemini:" + e.client.embedModel
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var values []float32
	err := e.client.call(ctx, "gemini.embed", func(ctx context.Context) error {
		resp, err := e.client.models.EmbedContent(ctx, e.client.embedModel, genai.Text(text), nil)
		if err != nil {
			return err
		}
		if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
			return fmt.Errorf("gemini embed: empty embedding result")
		}
		values = resp.Embeddings[0].Values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	var out string
	err := g.client.call(ctx, "gemini.generate", func(ctx context.Context) error {
		resp, err := g.client.models.GenerateContent(ctx, g.client.genModel, genai.Text(prompt), nil)
		if err != nil {
			return err
		}
		if resp == nil {
			return fmt.Errorf("gemini generate: empty response")
		}
		out = strings.TrimSpace(resp.Text())
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	var err error
	if c.executor == nil {
		err = fn(ctx)
	} else {
		err = c.executor.Execute(ctx, operation, fn, classifyError)
	}
	if err == nil {
		return nil
	}
	if err = resilience.MarkTemporary(operation, err, classifyError); domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	return fmt.Errorf("%s: %w", operation, err)
}

var classifyError = resilience.Classify(func(err error) (resilience.ErrorClassification, bool) {
	if code, ok := apiErrorCode(err); ok {
		return resilience.ClassifyStatus(code), true
	}
	return resilience.ErrorClassification{}, false
})

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
