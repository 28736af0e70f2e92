package custody

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

	"github.com/oxbryte/openly-backend/pkg/config"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
)

const errorBodyReadLimit int64 = 1024

var (
	errBaseURLRequired = errors.New("custody base url is required")
	errAPIKeyRequired  = errors.New("custody api key is required")
)

// Client wraps the wallet-custodian REST API (balances, withdrawals).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the custodian client from configuration.
func NewClient(cfg config.CustodyConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Balance is the custodian's view of a wallet.
type Balance struct {
	WalletID   string `json:"walletId"`
	AmountUSDC string `json:"amountUsdc"`
}

// WithdrawalRequest asks the custodian to move settled funds to the seller's
// external wallet.
type WithdrawalRequest struct {
	WalletID    string `json:"walletId"`
	AmountUSDC  string `json:"amountUsdc"`
	Destination string `json:"destination,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

// Withdrawal is the custodian acknowledgement for a withdrawal request.
type Withdrawal struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// GetBalance fetches the current balance for the given custodial wallet.
func (c *Client) GetBalance(ctx context.Context, walletID string) (*Balance, error) {
	trimmed := strings.TrimSpace(walletID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}

	var balance Balance
	if err := c.do(ctx, http.MethodGet, "/v1/wallets/"+trimmed+"/balance", nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// RequestWithdrawal submits a withdrawal and returns the custodian tx id.
func (c *Client) RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (*Withdrawal, error) {
	if strings.TrimSpace(req.WalletID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	if strings.TrimSpace(req.AmountUSDC) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount is required")
	}

	var withdrawal Withdrawal
	if err := c.do(ctx, http.MethodPost, "/v1/withdrawals", req, &withdrawal); err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode custody request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build custody request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Includes client timeouts; the caller never treats this as a
		// terminal payment state.
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "custody request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "custody resource not found")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("custody returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode custody response")
	}
	return nil
}
