// Package graph sends text replies through the Messenger / Instagram Send API.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
	"github.com/capitalize-ai/autoreply-relay/pkg/metrics"
)

// DefaultBaseURL is the pinned Graph API version.
const DefaultBaseURL = "https://graph.facebook.com/v19.0"

// maxErrorBody caps how much of a failed response is kept.
const maxErrorBody = 64 << 10

// SendResponse is the platform's acknowledgement of a delivered message.
type SendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// APIError is a non-2xx answer from the Send API.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode"`
	FBTraceID  string `json:"fbtrace_id"`
	Body       string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("graph api: status %d code %d: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph api: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether a later retry could succeed: throttling and
// server-side failures.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsPermanent reports whether err is a platform rejection that will not
// succeed on retry. Transport errors are not permanent.
func IsPermanent(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && !apiErr.Temporary()
}

// Sender is implemented by Client.
type Sender interface {
	SendText(ctx context.Context, recipientID, text, accessToken string) (*SendResponse, error)
}

// Client is a minimal Send API client. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

// SendText delivers text to recipientID on behalf of the page owning accessToken.
func (c *Client) SendText(ctx context.Context, recipientID, text, accessToken string) (*SendResponse, error) {
	var body sendRequest
	body.Recipient.ID = recipientID
	body.Message.Text = text

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/me/messages?" + url.Values{"access_token": {accessToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordGraphRequest("error", time.Since(start).Seconds())
		// the URL carries the token; keep it out of logs
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("graph api: send: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordGraphRequest(strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	// The message is delivered once the platform answers 2xx; an
	// unreadable body must not turn that into a retry.
	var out SendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logger.Global().Warn("graph api: undecodable send response",
			zap.String("recipient_id", recipientID),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return &SendResponse{}, nil
	}
	return &out, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(raw)}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		envelope.Error.StatusCode = resp.StatusCode
		envelope.Error.Body = apiErr.Body
		return envelope.Error
	}
	return apiErr
}
