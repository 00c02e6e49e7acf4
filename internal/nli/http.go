package nli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultModel is the NLI mixture used for AutoAIS judgments in the
// Attributed QA paper.
const DefaultModel = "google/t5_xxl_true_nli_mixture"

// HTTPClassifier calls a remote NLI serving endpoint. The endpoint accepts
// one formatted query string and answers with the model's class label;
// label "1" is the entailed class, anything else is not-entailed.
type HTTPClassifier struct {
	endpoint string
	model    string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewHTTPClassifier creates a classifier against endpoint. qps caps request
// rate; 0 disables limiting.
func NewHTTPClassifier(endpoint, model string, qps int) *HTTPClassifier {
	if model == "" {
		model = DefaultModel
	}
	var limiter *rate.Limiter
	if qps > 0 {
		limiter = rate.NewLimiter(rate.Limit(qps), qps)
	}
	return &HTTPClassifier{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: 60 * time.Second},
		limiter:  limiter,
	}
}

type inferRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type inferResponse struct {
	Label string `json:"label"`
}

// Classify posts the query and maps the returned label to a class.
func (h *HTTPClassifier) Classify(ctx context.Context, q Query) (bool, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}

	body, err := json.Marshal(inferRequest{Model: h.model, Input: q.String()})
	if err != nil {
		return false, fmt.Errorf("failed to marshal NLI request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build NLI request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("NLI request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, fmt.Errorf("NLI endpoint returned %d: %s", resp.StatusCode, msg)
	}

	var out inferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("failed to decode NLI response: %w", err)
	}

	return out.Label == "1", nil
}
