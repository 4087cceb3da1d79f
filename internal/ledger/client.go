package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public ledger API endpoint.
const DefaultBaseURL = "https://api.ynab.com/v1"

// DefaultTimeout bounds every ledger request.
const DefaultTimeout = 30 * time.Second

// HTTPClient is the concrete implementation of Service over the ledger's REST API.
type HTTPClient struct {
	baseURL  string
	token    string
	budgetID string
	http     *http.Client
}

// NewHTTPClient creates a client for one budget. timeout <= 0 selects DefaultTimeout.
func NewHTTPClient(baseURL, token, budgetID string, timeout time.Duration) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		budgetID: budgetID,
		http:     &http.Client{Timeout: timeout},
	}
}

// CreateTransactions posts one batch to the budget's transactions endpoint.
func (c *HTTPClient) CreateTransactions(ctx context.Context, txns []Transaction) (*CreateResult, error) {
	body, err := json.Marshal(TransactionsPayload{Transactions: txns})
	if err != nil {
		return nil, fmt.Errorf("CreateTransactions: encoding payload: %w", err)
	}

	status, raw, err := c.do(ctx, http.MethodPost, c.budgetPath("transactions"), body)
	if err != nil {
		return nil, fmt.Errorf("CreateTransactions: %w", err)
	}

	var resp struct {
		Data *struct {
			Transactions       *[]json.RawMessage `json:"transactions"`
			DuplicateImportIDs []string           `json:"duplicate_import_ids"`
		} `json:"data"`
	}
	if status/100 != 2 || json.Unmarshal(raw, &resp) != nil || resp.Data == nil || resp.Data.Transactions == nil {
		return nil, &RejectedError{StatusCode: status, Body: string(raw)}
	}

	return &CreateResult{
		New:                len(*resp.Data.Transactions),
		DuplicateImportIDs: resp.Data.DuplicateImportIDs,
	}, nil
}

// ListAccounts returns the budget's accounts.
func (c *HTTPClient) ListAccounts(ctx context.Context) ([]Account, error) {
	status, raw, err := c.do(ctx, http.MethodGet, c.budgetPath("accounts"), nil)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}

	var resp struct {
		Data *struct {
			Accounts []Account `json:"accounts"`
		} `json:"data"`
	}
	if status/100 != 2 || json.Unmarshal(raw, &resp) != nil || resp.Data == nil {
		return nil, &RejectedError{StatusCode: status, Body: string(raw)}
	}

	return resp.Data.Accounts, nil
}

func (c *HTTPClient) budgetPath(resource string) string {
	return fmt.Sprintf("%s/budgets/%s/%s", c.baseURL, url.PathEscape(c.budgetID), resource)
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, raw, nil
}
