// Package dispatch delivers league messages to peer agents over HTTP
// JSON-RPC, with bounded retries and backoff.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Dosada05/agent-league/protocol"
)

// Client posts one framed message per call to a peer's /mcp endpoint.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a client whose requests are additionally bounded by
// timeout. The per-call context still wins when it is shorter.
func NewClient(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// Call frames msg as a JSON-RPC request, posts it to endpoint and returns
// the raw result message. A non-2xx status or an RPC-level error both
// count as delivery failures.
func (c *Client) Call(ctx context.Context, endpoint string, msg protocol.Message) (json.RawMessage, error) {
	rpcReq, err := protocol.NewRequest(msg)
	if err != nil {
		return nil, fmt.Errorf("frame request: %w", err)
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("endpoint %s returned status %d", endpoint, resp.StatusCode)
	}

	var rpcResp protocol.RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("endpoint %s: rpc error %d: %w", endpoint, rpcResp.Error.Code, rpcResp.Error)
	}
	return rpcResp.Result, nil
}
