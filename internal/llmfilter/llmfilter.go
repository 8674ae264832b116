// Package llmfilter turns a free-text query into typed activity filter
// values by asking a completion endpoint for a JSON object and
// validating the answer. Any failure is reported to the caller, who
// falls back to manual filters.
package llmfilter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"

	"github.com/ausflug/ausflug/internal/config"
)

// filterSchema constrains the shape of the model's answer before any
// vocabulary checking happens.
const filterSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"categories": {"type": "array", "items": {"type": "string"}},
		"group": {"type": "string"},
		"max_price": {"type": "number", "minimum": 0},
		"setting": {"type": "string"},
		"weather_pref": {"type": "string"},
		"target_groups": {"type": "array", "items": {"type": "string"}}
	}
}`

// Filters is the structured search the model extracted. Empty fields
// mean the query did not constrain them.
type Filters struct {
	Categories   []string `json:"categories,omitempty"`
	Group        string   `json:"group,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
	Setting      string   `json:"setting,omitempty"`
	WeatherPref  string   `json:"weather_pref,omitempty"`
	TargetGroups []string `json:"target_groups,omitempty"`
}

// Vocabulary lists the values the model is allowed to use. Anything
// outside it is dropped from the answer.
type Vocabulary struct {
	Categories   []string
	Groups       []string
	Settings     []string
	WeatherPrefs []string
	TargetGroups []string
}

type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	schema     *gojsonschema.Schema
	logger     *logrus.Logger
}

func New(cfg config.LLMConfig, logger *logrus.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("llm endpoint is not configured")
	}
	if logger == nil {
		logger = logrus.New()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(filterSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter schema: %w", err)
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		schema:     schema,
		logger:     logger,
	}, nil
}

type completionRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Text string `json:"text"`
}

// ExtractFilters asks the model to map the query onto the vocabulary
// and returns the validated filters.
func (c *Client) ExtractFilters(ctx context.Context, query string, vocab Vocabulary) (*Filters, error) {
	body, err := json.Marshal(completionRequest{
		Model:  c.model,
		Prompt: buildPrompt(query, vocab),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion request returned status %d", resp.StatusCode)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}

	filters, err := c.parseAnswer(completion.Text, vocab)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"query":      query,
		"categories": filters.Categories,
		"group":      filters.Group,
	}).Debug("Query mapped to filters")
	return filters, nil
}

// parseAnswer strips markdown fences, parses the JSON, checks it
// against the schema and drops out-of-vocabulary values.
func (c *Client) parseAnswer(text string, vocab Vocabulary) (*Filters, error) {
	cleaned := stripFences(text)

	result, err := c.schema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("model answer is not valid JSON: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("model answer violates filter schema: %s", result.Errors()[0].String())
	}

	var filters Filters
	if err := json.Unmarshal([]byte(cleaned), &filters); err != nil {
		return nil, fmt.Errorf("failed to parse model answer: %w", err)
	}

	filters.Categories = intersect(filters.Categories, vocab.Categories)
	filters.TargetGroups = intersect(filters.TargetGroups, vocab.TargetGroups)
	if !containsFold(vocab.Groups, filters.Group) {
		filters.Group = ""
	}
	if !containsFold(vocab.Settings, filters.Setting) {
		filters.Setting = ""
	}
	if !containsFold(vocab.WeatherPrefs, filters.WeatherPref) {
		filters.WeatherPref = ""
	}
	return &filters, nil
}

func buildPrompt(query string, vocab Vocabulary) string {
	var b strings.Builder
	b.WriteString("Map the user request onto activity search filters. ")
	b.WriteString("Answer with a single JSON object and nothing else. ")
	b.WriteString("Allowed keys: categories, group, max_price, setting, weather_pref, target_groups. ")
	fmt.Fprintf(&b, "Allowed categories: %s. ", strings.Join(vocab.Categories, ", "))
	fmt.Fprintf(&b, "Allowed groups: %s. ", strings.Join(vocab.Groups, ", "))
	fmt.Fprintf(&b, "Allowed settings: %s. ", strings.Join(vocab.Settings, ", "))
	fmt.Fprintf(&b, "Allowed weather preferences: %s. ", strings.Join(vocab.WeatherPrefs, ", "))
	fmt.Fprintf(&b, "Allowed target groups: %s. ", strings.Join(vocab.TargetGroups, ", "))
	fmt.Fprintf(&b, "User request: %q", query)
	return b.String()
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func intersect(values, allowed []string) []string {
	if len(values) == 0 {
		return nil
	}
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if containsFold(allowed, v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// containsFold treats an empty value as allowed so unset fields pass
// through.
func containsFold(allowed []string, v string) bool {
	if v == "" {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return true
		}
	}
	return false
}
