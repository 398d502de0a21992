package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// RESTProvider talks to the payment provider's HTTP API, authenticating
// with OAuth2 client credentials
type RESTProvider struct {
	baseURL string
	client  *http.Client
}

// RESTConfig configures the REST payment provider
type RESTConfig struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// NewRESTProvider creates a provider client. The underlying HTTP client
// fetches and refreshes access tokens automatically.
func NewRESTProvider(cfg RESTConfig) *RESTProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	client := creds.Client(context.Background())
	client.Timeout = cfg.Timeout

	return &RESTProvider{
		baseURL: cfg.BaseURL,
		client:  client,
	}
}

// VerifyCapture fetches the capture and checks its status and amount
// against what checkout computed
func (p *RESTProvider) VerifyCapture(ctx context.Context, reference string, expectedAmount float64) (*Capture, error) {
	if reference == "" {
		return nil, fmt.Errorf("empty payment reference")
	}

	endpoint := fmt.Sprintf("%s/v1/captures/%s", p.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building capture request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching capture: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrCaptureNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("payment provider returned %d", resp.StatusCode)
	}

	var capture Capture
	if err := json.NewDecoder(resp.Body).Decode(&capture); err != nil {
		return nil, fmt.Errorf("decoding capture: %w", err)
	}

	if capture.Status != "completed" {
		return nil, fmt.Errorf("capture %s has status %q", reference, capture.Status)
	}
	// Amounts are currency values with two decimals; compare with a
	// cent of tolerance to absorb float representation noise
	if math.Abs(capture.Amount-expectedAmount) > 0.005 {
		return nil, fmt.Errorf("capture amount %.2f does not match order total %.2f", capture.Amount, expectedAmount)
	}

	return &capture, nil
}
