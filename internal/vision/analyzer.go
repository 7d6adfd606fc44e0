package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultURL       = "https://api.anthropic.com/v1/messages"
	DefaultModel     = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens = 1024
	apiVersion       = "2023-06-01"
)

// Prompt lists exactly the six keys ParseHints understands.
const Prompt = `Analysiere dieses Produktfoto und gib die erkennbaren Produktdaten als JSON-Objekt zurück.
Antworte ausschließlich mit dem reinen JSON-Objekt, ohne Markdown und ohne Code-Blöcke.

Schlüssel:
- "hersteller": Marke oder Hersteller
- "modell": Modell- oder Produktname
- "farbe": Hauptfarbe(n)
- "groesse": Größe, falls erkennbar
- "produktbeschreibung": kurze deutsche Beschreibung in ein bis zwei Sätzen
- "preis": geschätzter Marktpreis in Euro als Zahl, nur wenn realistisch schätzbar

Lass Schlüssel weg, die nicht erkennbar sind.`

// Analyzer sends product photos to a multimodal messages endpoint.
type Analyzer struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
	maxTokens  int
}

type Config struct {
	URL       string
	APIKey    string
	Model     string
	MaxTokens int
	// Timeout bounds one analysis call when NewAnalyzer builds its own client.
	// Zero waits as long as the request context allows.
	Timeout   time.Duration
}

func NewAnalyzer(httpClient *http.Client, cfg Config) *Analyzer {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Analyzer{
		httpClient: httpClient,
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
	}
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

// Analyze asks the model for product hints. The returned Hints are always usable: on
// any failure they are empty. A non-nil error only reports a transport or endpoint
// failure; an unparseable reply is not an error.
func (a *Analyzer) Analyze(ctx context.Context, base64Image, mediaType string) (Hints, error) {
	if a == nil {
		return Hints{}, errors.New("image analysis is not configured")
	}
	if strings.TrimSpace(base64Image) == "" {
		return Hints{}, errors.New("empty image")
	}
	if mediaType == "" {
		mediaType = DefaultMediaType
	}

	payload := messagesRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{Type: "image", Source: &imageSource{Type: "base64", MediaType: mediaType, Data: base64Image}},
				{Type: "text", Text: Prompt},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Hints{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return Hints{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", apiVersion)
	if a.apiKey != "" {
		req.Header.Set("x-api-key", a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Hints{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Hints{}, fmt.Errorf("image analysis failed: status %d: %s", resp.StatusCode, string(data))
	}

	var parsed messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Hints{}, nil
	}
	text := "{}"
	if len(parsed.Content) > 0 && parsed.Content[0].Text != "" {
		text = parsed.Content[0].Text
	}
	return ParseHints(text), nil
}
