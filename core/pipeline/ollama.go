package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/evidra/evidra/helper"
	"github.com/evidra/evidra/model"
	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

const (
	// defaultMaxAttempts caps retries around generation and vision calls.
	defaultMaxAttempts = 3

	embedTimeout = 30 * time.Second
)

// NewOllamaGenerator creates a text generation capability backed by a local
// Ollama model. The Ollama host is taken from the OLLAMA_HOST environment.
func NewOllamaGenerator(modelName string) (GenerateFunc, error) {
	client := api.NewClient(envconfig.Host(), http.DefaultClient)
	retry := helper.NewRetryPolicy(defaultMaxAttempts)

	return func(ctx context.Context, system string, messages []Message) (string, error) {
		chatMessages := make([]api.Message, 0, len(messages)+1)
		if system != "" {
			chatMessages = append(chatMessages, api.Message{Role: "system", Content: system})
		}
		for _, message := range messages {
			chatMessages = append(chatMessages, api.Message{Role: message.Role, Content: message.Content})
		}

		req := api.ChatRequest{
			Model:    modelName,
			Messages: chatMessages,
			Options: map[string]any{
				"temperature": 0.1,
				"num_predict": 2000,
			},
		}

		var responseBuilder strings.Builder
		err := retry.Do(ctx, func() error {
			responseBuilder.Reset()
			return client.Chat(ctx, &req, func(resp api.ChatResponse) error {
				_, err := responseBuilder.WriteString(resp.Message.Content)
				return err
			})
		})
		if err != nil {
			return "", fmt.Errorf("failed to generate response: %w", err)
		}

		return responseBuilder.String(), nil
	}, nil
}

// NewOllamaEmbedder creates an embedding capability backed by a local Ollama
// embedding model, as an alternative to the in-process transformer.
func NewOllamaEmbedder(modelName string) (EmbedFunc, error) {
	client := api.NewClient(envconfig.Host(), http.DefaultClient)

	return func(text string) ([]float32, error) {
		ctx, cancel := context.WithTimeout(context.Background(), embedTimeout)
		defer cancel()

		resp, err := client.Embeddings(ctx, &api.EmbeddingRequest{
			Model:  modelName,
			Prompt: text,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding: %w", err)
		}

		embedding := make([]float32, len(resp.Embedding))
		for i, v := range resp.Embedding {
			embedding[i] = float32(v)
		}
		return embedding, nil
	}, nil
}

// NewOllamaExtractor creates a vision extraction capability backed by a local
// Ollama vision model. Call and parse failures degrade to error-tagged
// extractions so one bad region never fails the document.
func NewOllamaExtractor(modelName string) (ExtractFunc, error) {
	client := api.NewClient(envconfig.Host(), http.DefaultClient)
	retry := helper.NewRetryPolicy(defaultMaxAttempts)

	return func(ctx context.Context, image []byte, region model.Region) (model.Extraction, error) {
		prompt := TablePrompt
		if region.Type == model.RegionTypeFigure {
			prompt = ChartPrompt
		}

		stream := false
		req := api.GenerateRequest{
			Model:  modelName,
			Prompt: prompt,
			Images: []api.ImageData{image},
			Stream: &stream,
			Options: map[string]any{
				"temperature": 0.1,
				"num_predict": 2000,
			},
		}

		var responseBuilder strings.Builder
		err := retry.Do(ctx, func() error {
			responseBuilder.Reset()
			return client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
				_, err := responseBuilder.WriteString(resp.Response)
				return err
			})
		})
		if err != nil {
			return FailedExtraction(region, err), nil
		}

		if region.Type == model.RegionTypeFigure {
			return ParseChartResponse(responseBuilder.String(), region), nil
		}
		return ParseTableResponse(responseBuilder.String(), region), nil
	}, nil
}
