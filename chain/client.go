// chain/client.go
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrTxNotFound is returned when the fullnode has no committed transaction
// for a hash - either the hash is bogus or the transaction is still pending.
var ErrTxNotFound = errors.New("transaction not found on chain")

// TransactionInfo is the subset of a committed transaction the service needs.
type TransactionInfo struct {
	Hash     string `json:"hash"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
}

// Client is the read-only view of the rewards contract. The contract itself
// (minting, cooldown bookkeeping) is external; this client only asks it
// questions.
type Client interface {
	// CanClaimRewards proxies the contract's cooldown view function.
	CanClaimRewards(ctx context.Context, userAddress string) (bool, error)
	// TransactionByHash looks up a committed transaction for verification.
	TransactionByHash(ctx context.Context, hash string) (*TransactionInfo, error)
}

// RestClient talks to an Aptos-style fullnode REST API.
type RestClient struct {
	baseURL         string
	contractAddress string
	httpClient      *http.Client
}

func NewRestClient(baseURL, contractAddress string) *RestClient {
	return &RestClient{
		baseURL:         baseURL,
		contractAddress: contractAddress,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type viewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []string `json:"arguments"`
}

// CanClaimRewards calls the contract's can_claim_rewards view, which gates
// claims behind a fixed cooldown. A user who has never claimed has no
// last-claim resource yet and the view call errors - that means eligible.
func (c *RestClient) CanClaimRewards(ctx context.Context, userAddress string) (bool, error) {
	payload := viewRequest{
		Function:      fmt.Sprintf("%s::vibetrax::can_claim_rewards", c.contractAddress),
		TypeArguments: []string{},
		Arguments:     []string{userAddress},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to encode view request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/view", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create view request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to call fullnode view: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No LastClaimTime resource yet - first claim is always allowed.
		// Other 4xx (malformed address, bad payload) must not read as eligible.
		io.Copy(io.Discard, resp.Body)
		return true, nil
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("fullnode view returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var result []bool
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode view response: %w", err)
	}
	if len(result) == 0 {
		return false, fmt.Errorf("fullnode view returned empty result")
	}
	return result[0], nil
}

// TransactionByHash fetches a transaction by hash. Pending transactions are
// reported as ErrTxNotFound so callers retry after confirmation.
func (c *RestClient) TransactionByHash(ctx context.Context, hash string) (*TransactionInfo, error) {
	url := fmt.Sprintf("%s/v1/transactions/by_hash/%s", c.baseURL, hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call fullnode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, ErrTxNotFound
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fullnode returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var tx struct {
		Type     string `json:"type"`
		Hash     string `json:"hash"`
		Success  bool   `json:"success"`
		VMStatus string `json:"vm_status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("failed to decode transaction response: %w", err)
	}

	if tx.Type == "pending_transaction" {
		return nil, ErrTxNotFound
	}

	return &TransactionInfo{
		Hash:     tx.Hash,
		Success:  tx.Success,
		VMStatus: tx.VMStatus,
	}, nil
}
