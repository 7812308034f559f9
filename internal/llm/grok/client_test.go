package grok

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/normalize"
)

func completionReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func testClient(t *testing.T, url string, maxRetries int) *Client {
	t.Helper()
	return NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    url,
		MaxRetries: maxRetries,
		RatePerSec: 1000,
	}, nil)
}

func textUnits(s string) []normalize.ContentUnit {
	return []normalize.ContentUnit{{Kind: normalize.UnitText, Page: 0, Text: s}}
}

func TestAnalyzeTextDocument(t *testing.T) {
	var gotAuth, gotModel string
	var gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content any `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = body.Model
		gotContent, _ = body.Messages[0].Content.(string)
		fmt.Fprint(w, completionReply(`{"business_name":"Chase","document_type":"Statement","invoice_date":"2024-01-15"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 1)
	res, err := c.Analyze(context.Background(), textUnits("ACCOUNT STATEMENT ..."), "req-1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.Structured() {
		t.Fatal("want structured result")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotModel != "grok-4-fast-reasoning" {
		t.Errorf("model = %q", gotModel)
	}
	if !strings.Contains(gotContent, "File content:") || !strings.Contains(gotContent, "ACCOUNT STATEMENT") {
		t.Errorf("prompt missing document text: %q", gotContent)
	}
}

func TestAnalyzeImageUsesVisionModel(t *testing.T) {
	var gotModel string
	var sawImagePart bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content []map[string]any `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = body.Model
		for _, part := range body.Messages[0].Content {
			if part["type"] == "image_url" {
				sawImagePart = true
			}
		}
		fmt.Fprint(w, completionReply(`{"business_name":"Vet Clinic","invoice_date":"2024-01-10"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 1)
	units := []normalize.ContentUnit{
		{Kind: normalize.UnitImage, Page: 0, Bytes: []byte{0xff, 0xd8, 0xff}, MimeType: "image/jpeg"},
	}
	if _, err := c.Analyze(context.Background(), units, "req-1"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if gotModel != "grok-2-vision-1212" {
		t.Errorf("model = %q, want vision model", gotModel)
	}
	if !sawImagePart {
		t.Error("request carried no image_url part")
	}
}

func TestAnalyzeAuthFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	_, err := c.Analyze(context.Background(), textUnits("x"), "req-1")
	if !common.IsKind(err, common.KindAuthentication) {
		t.Fatalf("want AUTHENTICATION, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("auth failure was retried: %d calls", calls.Load())
	}
}

func TestAnalyzeServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, completionReply(`{"business_name":"Acme","invoice_date":"2024-01-01"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	res, err := c.Analyze(context.Background(), textUnits("x"), "req-1")
	if err != nil {
		t.Fatalf("Analyze after retry: %v", err)
	}
	if !res.Structured() {
		t.Error("want structured result after retry")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestAnalyzeBadRequestIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	_, err := c.Analyze(context.Background(), textUnits("x"), "req-1")
	if !common.IsKind(err, common.KindAnalysisService) {
		t.Fatalf("want ANALYSIS_SERVICE, got %v", err)
	}
	var ae *common.AppError
	if !errors.As(err, &ae) || ae.Status != http.StatusBadRequest {
		t.Errorf("want status 400, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("400 was retried: %d calls", calls.Load())
	}
}

func TestAnalyzeWithoutCredentialFailsBeforeNetwork(t *testing.T) {
	t.Setenv("GROK_API_KEY", "")
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, RatePerSec: 1000}, nil)
	_, err := c.Analyze(context.Background(), textUnits("x"), "req-1")
	if !common.IsKind(err, common.KindAuthentication) {
		t.Fatalf("want AUTHENTICATION, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("request went out without a credential")
	}
}

func TestAnalyzeProseReplyComesBackUnstructured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionReply("This looks like a bank statement from Chase."))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 1)
	res, err := c.Analyze(context.Background(), textUnits("x"), "req-1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Structured() {
		t.Error("want unstructured result for prose reply")
	}
	if !strings.Contains(res.Text, "bank statement") {
		t.Errorf("Text = %q", res.Text)
	}
}
