package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront/domain"
)

// Tokenizer turns card params into a processor payment method id.
type Tokenizer interface {
	CreatePaymentMethod(ctx context.Context, card domain.CardParams) (string, error)
}

// ProcessorClient tokenizes directly against the processor with the publishable key,
// so card data never reaches the storefront backend on this path.
type ProcessorClient struct {
	baseURL        string
	publishableKey string
	httpClient     *http.Client
}

func NewProcessorClient(baseURL, publishableKey string, timeout time.Duration) *ProcessorClient {
	return &ProcessorClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		publishableKey: publishableKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type paymentMethodRequest struct {
	Type string            `json:"type"`
	Card domain.CardParams `json:"card"`
}

type processorError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *ProcessorClient) CreatePaymentMethod(ctx context.Context, card domain.CardParams) (string, error) {
	if p.publishableKey == "" {
		return "", fmt.Errorf("processor publishable key not configured")
	}
	body, err := json.Marshal(paymentMethodRequest{Type: string(domain.PaymentMethodCard), Card: card})
	if err != nil {
		return "", fmt.Errorf("failed to encode payment method: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/payment_methods", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build processor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.publishableKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("processor unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("failed to read processor response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var pe processorError
		if json.Unmarshal(raw, &pe) == nil && pe.Error.Code != "" {
			return "", FromDeclineCode(pe.Error.Code, pe.Error.Message)
		}
		return "", fmt.Errorf("processor returned status %d", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode processor response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("processor returned no payment method id")
	}
	return out.ID, nil
}
