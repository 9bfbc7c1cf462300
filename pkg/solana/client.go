package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client is a JSON-RPC client for a ledger node.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new RPC client with the given HTTP client and node URL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("decoding result: %w", err)
	}
	return nil
}

// SendTransaction submits a signed transaction without waiting for
// confirmation.
func (c *Client) SendTransaction(ctx context.Context, tx Transaction) (Signature, error) {
	wire, err := tx.Serialize()
	if err != nil {
		return "", fmt.Errorf("serializing transaction: %w", err)
	}
	var signature string
	if err := c.call(ctx, "sendTransaction", []any{wire}, &signature); err != nil {
		return "", err
	}
	return Signature(signature), nil
}

type signatureStatusResult struct {
	Value []*struct {
		Slot          uint64  `json:"slot"`
		Confirmations *uint64 `json:"confirmations"`
		Err           *string `json:"err"`
	} `json:"value"`
}

// SignatureStatuses fetches the status of each signature in one round trip.
// A nil entry means the network has no knowledge of that signature.
func (c *Client) SignatureStatuses(ctx context.Context, signatures []Signature) ([]*TransactionStatus, error) {
	sigs := make([]string, len(signatures))
	for i, sig := range signatures {
		sigs[i] = string(sig)
	}
	var result signatureStatusResult
	if err := c.call(ctx, "getSignatureStatuses", []any{sigs}, &result); err != nil {
		return nil, err
	}
	if len(result.Value) != len(signatures) {
		return nil, fmt.Errorf("expected %d statuses, got %d", len(signatures), len(result.Value))
	}
	statuses := make([]*TransactionStatus, len(result.Value))
	for i, entry := range result.Value {
		if entry == nil {
			continue
		}
		status := &TransactionStatus{Slot: entry.Slot, Confirmations: entry.Confirmations}
		if entry.Err != nil {
			status.Err = *entry.Err
		}
		statuses[i] = status
	}
	return statuses, nil
}

type recentBlockhashesResult struct {
	Value []struct {
		Blockhash string `json:"blockhash"`
	} `json:"value"`
}

// RecentBlockhashes returns the set of blockhashes the network still accepts
// for new transactions.
func (c *Client) RecentBlockhashes(ctx context.Context) ([]Hash, error) {
	var result recentBlockhashesResult
	if err := c.call(ctx, "getRecentBlockhashes", nil, &result); err != nil {
		return nil, err
	}
	hashes := make([]Hash, len(result.Value))
	for i, entry := range result.Value {
		hashes[i] = Hash(entry.Blockhash)
	}
	return hashes, nil
}

type referenceBlockhashResult struct {
	Value struct {
		Blockhash     string `json:"blockhash"`
		FeeCalculator struct {
			LamportsPerSignature uint64 `json:"lamportsPerSignature"`
		} `json:"feeCalculator"`
	} `json:"value"`
}

// ReferenceBlockhash returns the blockhash new transactions should reference
// along with the current fee schedule.
func (c *Client) ReferenceBlockhash(ctx context.Context) (Hash, FeeInfo, error) {
	var result referenceBlockhashResult
	if err := c.call(ctx, "getRecentBlockhash", nil, &result); err != nil {
		return "", FeeInfo{}, err
	}
	fee := FeeInfo{LamportsPerSignature: result.Value.FeeCalculator.LamportsPerSignature}
	return Hash(result.Value.Blockhash), fee, nil
}

type balanceResult struct {
	Value uint64 `json:"value"`
}

// Balance returns the lamport balance of an account.
func (c *Client) Balance(ctx context.Context, address Address) (uint64, error) {
	var result balanceResult
	if err := c.call(ctx, "getBalance", []any{string(address)}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}
