package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// LaML REST API path, relative to the space URL.
const callsPathFormat = "/api/laml/2010-04-01/Accounts/%s/Calls.json"

// Form field names.
const (
	formFieldTo   = "To"
	formFieldFrom = "From"
	formFieldURL  = "Url"
)

// Static errors.
var (
	ErrToEmpty         = errors.New("destination number cannot be empty")
	ErrWebhookURLEmpty = errors.New("webhook url cannot be empty")
)

// Client originates calls through the SignalWire LaML REST API.
type Client struct {
	httpClient *http.Client
	spaceURL   string
	projectID  string
	apiToken   string
}

// Call describes an originated call.
type Call struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
	From   string `json:"from"`
}

// NewClient creates a client for the given SignalWire space. The spaceURL
// may be given with or without the https scheme.
func NewClient(spaceURL, projectID, apiToken string, timeout time.Duration) *Client {
	if !strings.HasPrefix(spaceURL, "http://") && !strings.HasPrefix(spaceURL, "https://") {
		spaceURL = "https://" + spaceURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		spaceURL:   strings.TrimSuffix(spaceURL, "/"),
		projectID:  projectID,
		apiToken:   apiToken,
	}
}

// CreateCall starts an outbound call from callerID to the destination
// number. When the call is answered, the provider fetches call instructions
// from webhookURL. Returns the provider's call SID.
func (c *Client) CreateCall(ctx context.Context, to, callerID, webhookURL string) (string, error) {
	if to == "" {
		return "", ErrToEmpty
	}

	if webhookURL == "" {
		return "", ErrWebhookURLEmpty
	}

	form := url.Values{}
	form.Set(formFieldTo, to)
	form.Set(formFieldFrom, callerID)
	form.Set(formFieldURL, webhookURL)

	endpoint := c.spaceURL + fmt.Sprintf(callsPathFormat, c.projectID)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create call request: %w", err)
	}

	req.SetBasicAuth(c.projectID, c.apiToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach telephony provider at %s: %w", c.spaceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)

		return "", fmt.Errorf("telephony provider returned status %s: %s",
			resp.Status, string(body))
	}

	var call Call

	err = json.NewDecoder(resp.Body).Decode(&call)
	if err != nil {
		return "", fmt.Errorf("failed to decode call response: %w", err)
	}

	return call.SID, nil
}
