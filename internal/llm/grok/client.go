package grok

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/llm"
	"github.com/joseph-ayodele/invoice-renamer/internal/normalize"
)

// Analyze implements llm.Analyzer against the x.ai chat/completions API.
// All units for one document are merged into a single request — text units
// concatenated into the prompt, image units attached as data URLs — so
// exactly one AnalysisResult comes back per document.
func (c *Client) Analyze(ctx context.Context, units []normalize.ContentUnit, reqID string) (llm.AnalysisResult, error) {
	start := time.Now()

	if c.cfg.APIKey == "" {
		return llm.AnalysisResult{}, common.NewAppError(common.KindAuthentication,
			"no analysis-service credential configured", nil)
	}
	if len(units) == 0 {
		return llm.AnalysisResult{}, common.NewServiceError(0, "no content units to analyze", nil)
	}

	if n := base64PayloadSize(units); n > constants.MaxBase64PayloadBytes {
		return llm.AnalysisResult{}, common.NewAppError(common.KindContentTooLarge,
			fmt.Sprintf("encoded payload %d bytes exceeds service cap %d", n, constants.MaxBase64PayloadBytes), nil)
	}

	model, body := c.buildRequest(units)
	c.log.Info("grok.analyze.start",
		"req_id", reqID,
		"model", model,
		"units", len(units),
		"has_images", hasImages(units),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return llm.AnalysisResult{}, common.NewServiceError(0, "rate limiter wait", err)
	}

	raw, err := c.breaker.execute(func() ([]byte, error) {
		return withRetry(ctx, c.log, c.cfg.MaxRetries, func() ([]byte, error) {
			return c.post(ctx, c.endpoint(), body)
		})
	})
	if err != nil {
		c.log.Error("grok.analyze.failed",
			"req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.AnalysisResult{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return llm.AnalysisResult{}, common.NewServiceError(0, "decode analysis response", err)
	}
	if len(cc.Choices) == 0 {
		return llm.AnalysisResult{}, common.NewServiceError(0, "no choices in analysis response", nil)
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	result := llm.ParseAnalysisText(content, c.log)

	c.log.Info("grok.analyze.ok",
		"req_id", reqID,
		"structured", result.Structured(),
		"reply_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (c *Client) endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
}

func (c *Client) buildRequest(units []normalize.ContentUnit) (string, map[string]any) {
	prompt := llm.BuildExtractionPrompt()
	model := c.cfg.Model

	if !hasImages(units) {
		var b strings.Builder
		b.WriteString(prompt)
		b.WriteString("\n\nFile content:\n")
		for i, u := range units {
			if i > 0 {
				b.WriteString("\n\n--- page ")
				b.WriteString(fmt.Sprintf("%d", u.Page+1))
				b.WriteString(" ---\n")
			}
			b.WriteString(u.Text)
		}
		return model, map[string]any{
			"model":       model,
			"temperature": c.cfg.Temperature,
			"stream":      false,
			"messages": []map[string]any{
				{"role": "user", "content": b.String()},
			},
		}
	}

	// Vision request: one text part carrying the prompt plus any text units,
	// followed by each image as a data URL.
	model = c.cfg.VisionModel
	var text strings.Builder
	text.WriteString(prompt)
	content := make([]map[string]any, 0, len(units)+1)
	for _, u := range units {
		if u.Kind == normalize.UnitText && u.Text != "" {
			text.WriteString("\n\nExtracted text (page ")
			text.WriteString(fmt.Sprintf("%d", u.Page+1))
			text.WriteString("):\n")
			text.WriteString(u.Text)
		}
	}
	content = append(content, map[string]any{"type": "text", "text": text.String()})
	for _, u := range units {
		if u.Kind != normalize.UnitImage {
			continue
		}
		dataURL := "data:" + u.MimeType + ";base64," + base64.StdEncoding.EncodeToString(u.Bytes)
		content = append(content, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": dataURL, "detail": "high"},
		})
	}

	return model, map[string]any{
		"model":       model,
		"temperature": c.cfg.Temperature,
		"stream":      false,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
	}
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, common.NewServiceError(0, "analysis service unreachable", err)
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.log.Warn("grok.response_body_close_error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, common.NewAppError(common.KindAuthentication,
			fmt.Sprintf("analysis service rejected credential (status %d)", resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, common.NewServiceError(resp.StatusCode,
			fmt.Sprintf("analysis service status %d: %s", resp.StatusCode, truncate(string(raw), 512)), nil)
	}
	return raw, nil
}

// base64PayloadSize estimates the encoded request size: text verbatim, image
// bytes at the 4/3 base64 expansion.
func base64PayloadSize(units []normalize.ContentUnit) int {
	total := 0
	for _, u := range units {
		if u.Kind == normalize.UnitImage {
			total += base64.StdEncoding.EncodedLen(len(u.Bytes))
		} else {
			total += len(u.Text)
		}
	}
	return total
}

func hasImages(units []normalize.ContentUnit) bool {
	for _, u := range units {
		if u.Kind == normalize.UnitImage {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
