package moncash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	errors "github.com/afepanou/payments/internal"
	moncashtypes "github.com/afepanou/payments/internal/core/datamodel/moncash"
)

const (
	oauthPath               = "/oauth/token"
	createPaymentPath       = "/v1/CreatePayment"
	retrieveTransactionPath = "/v1/RetrieveTransactionPayment"
	retrieveOrderPath       = "/v1/RetrieveOrderPayment"
)

// tokenSkew is subtracted from the provider-reported expiry so a token is
// never used in the last seconds of its lifetime.
const tokenSkew = 30 * time.Second

// Client talks to the MonCash REST API. Calls are synchronous with a
// bounded timeout; retry policy belongs to the caller.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	gatewayURL   string
	httpClient   *http.Client
	logger       *slog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

type Config struct {
	ClientID     string
	ClientSecret string
	// BaseURL is the scheme+host of the API, e.g.
	// https://sandbox.moncashbutton.digicelgroup.com
	BaseURL    string
	GatewayURL string
	Timeout    time.Duration
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		gatewayURL:   strings.TrimSuffix(cfg.GatewayURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// Authenticate exchanges the client credentials for a bearer token. The
// token is cached until shortly before the provider-reported expiry.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	body := strings.NewReader(url.Values{
		"scope":      {"read,write"},
		"grant_type": {"client_credentials"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+oauthPath, body)
	if err != nil {
		return "", errors.NewInternalError("failed to build token request", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("moncash token request failed", "error", err)
		return "", errors.NewAuthError("could not reach MonCash token endpoint", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewAuthError("failed to read token response", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("moncash rejected credentials",
			"status", resp.StatusCode,
			"response", string(respBody))
		return "", errors.NewAuthError(fmt.Sprintf("MonCash rejected credentials (status %d)", resp.StatusCode), nil)
	}

	var token moncashtypes.TokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return "", errors.NewAuthError("invalid token response", err)
	}
	if token.AccessToken == "" {
		return "", errors.NewAuthError("token response missing access_token", nil)
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - tokenSkew)

	c.logger.Info("moncash token obtained", "expires_in_seconds", token.ExpiresIn)
	return c.accessToken, nil
}

// invalidateToken drops the cached token so the next call re-authenticates.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// CreatePayment registers a payment attempt with the provider and returns
// the redirect token for the hosted payment page.
func (c *Client) CreatePayment(ctx context.Context, orderID string, amountCentimes int64) (*moncashtypes.PaymentToken, error) {
	payload := moncashtypes.CreatePaymentRequest{
		Amount:  FormatAmount(amountCentimes),
		OrderID: orderID,
	}

	var resp moncashtypes.CreatePaymentResponse
	if err := c.post(ctx, createPaymentPath, payload, &resp); err != nil {
		return nil, err
	}

	if resp.PaymentToken.Token == "" {
		return nil, errors.NewProviderError("MonCash response missing payment token", resp)
	}

	c.logger.Info("moncash payment created",
		"order_id", orderID,
		"amount_centimes", amountCentimes)

	return &resp.PaymentToken, nil
}

// RetrieveByTransactionID fetches the authoritative payment record for a
// provider transaction id.
func (c *Client) RetrieveByTransactionID(ctx context.Context, transactionID string) (*moncashtypes.PaymentDetails, error) {
	payload := moncashtypes.RetrieveByTransactionRequest{TransactionID: transactionID}

	var resp moncashtypes.RetrieveResponse
	if err := c.post(ctx, retrieveTransactionPath, payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Payment, nil
}

// RetrieveByOrderID fetches the authoritative payment record when only the
// MonCash order id is known (some callbacks omit the transaction id).
func (c *Client) RetrieveByOrderID(ctx context.Context, orderID string) (*moncashtypes.PaymentDetails, error) {
	payload := moncashtypes.RetrieveByOrderRequest{OrderID: orderID}

	var resp moncashtypes.RetrieveResponse
	if err := c.post(ctx, retrieveOrderPath, payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Payment, nil
}

// GatewayURL builds the redirect URL the customer must visit to complete
// payment.
func (c *Client) GatewayURL(paymentToken string) string {
	return fmt.Sprintf("%s/Payment/Redirect?token=%s", c.gatewayURL, url.QueryEscape(paymentToken))
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return errors.NewInternalError("failed to marshal provider request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return errors.NewInternalError("failed to build provider request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("moncash request failed", "path", path, "error", err)
		return errors.NewProviderUnavailableError("MonCash request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewProviderUnavailableError("failed to read MonCash response", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// stale token; caller re-authenticates on the next attempt
		c.invalidateToken()
		return errors.NewAuthError("MonCash token expired or revoked", nil)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		var providerErr moncashtypes.ErrorPayload
		if err := json.Unmarshal(respBody, &providerErr); err != nil || providerErr.Message == "" {
			providerErr = moncashtypes.ErrorPayload{
				Status:  resp.StatusCode,
				Message: strings.TrimSpace(string(respBody)),
				Path:    path,
			}
		}
		c.logger.Error("moncash rejected request",
			"path", path,
			"status", resp.StatusCode,
			"provider_message", providerErr.Message)
		return errors.NewProviderError(fmt.Sprintf("MonCash rejected request (status %d)", resp.StatusCode), providerErr)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.NewProviderError("invalid MonCash response body", string(respBody))
	}

	return nil
}

// FormatAmount renders centimes as the decimal gourdes string the provider
// expects.
func FormatAmount(centimes int64) string {
	return fmt.Sprintf("%d.%02d", centimes/100, centimes%100)
}
