package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/recipe-importer/internal/common"
	"github.com/joseph-ayodele/recipe-importer/internal/llm"
)

// Structure implements llm.StructuringService using chat/completions in JSON mode.
func (c *Client) Structure(ctx context.Context, req llm.StructureRequest) (llm.RecipeDraft, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.structure.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"file", req.SourceFilename,
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req.Categories)},
			{"role": "user", "content": llm.BuildUserPrompt(req.Text, req.SourceFilename)},
			{"role": "system", "content": "JSON Schema:\n" + llm.MustJSON(llm.BuildRecipeDraftSchema())},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.logger.Error("llm.structure.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.RecipeDraft{}, nil, err
	}
	raw := []byte(content)

	draft, changes, err := llm.ParseDraft(raw)
	if err != nil {
		c.logger.Error("llm.structure.parse_failed",
			"req_id", rid, "error", err, "content", truncate(content, 500),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.RecipeDraft{}, raw, err
	}
	if len(changes) > 0 {
		c.logger.Warn("llm.structure.lenient_sanitize_applied",
			"req_id", rid, "changes", changes,
		)
	}

	c.logger.Info("llm.structure.ok",
		"req_id", rid,
		"name", draft.Name,
		"ingredients", len(draft.Ingredients),
		"category", draft.Category,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return draft, raw, nil
}

// ReadImage implements extract.VisionService: image bytes in, free text out.
func (c *Client) ReadImage(ctx context.Context, image []byte, mimeType, hint string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	if mimeType == "" {
		mimeType = "image/png"
	}

	c.logger.Info("llm.vision.start",
		"req_id", rid,
		"model", c.cfg.VisionModel,
		"image_bytes", len(image),
		"mime", mimeType,
	)

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	body := map[string]any{
		"model":      c.cfg.VisionModel,
		"max_tokens": 2000,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": llm.VisionPrompt(hint)},
					{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.logger.Error("llm.vision.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}
	c.logger.Info("llm.vision.ok",
		"req_id", rid,
		"chars", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// complete posts a chat/completions request and returns the first choice's content.
func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, err := llm.SendJSONWithRetry(ctx, c.http, endpoint, body, headers,
		llm.RetryPolicy{MaxRetries: c.cfg.MaxRetries}, c.logger)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", common.StructuringError("decode openai response", err)
	}
	if len(cc.Choices) == 0 {
		return "", common.StructuringError("no choices in openai response", nil)
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
