package protocol

import "encoding/json"

// JSON-RPC 2.0 framing. Every agent exposes a single method,
// handle_message, whose params wrap one league.v2 message.

const (
	JSONRPCVersion = "2.0"
	MethodHandle   = "handle_message"
)

// RPC error codes.
const (
	RPCParseError     = -32700
	RPCInvalidRequest = -32600
	RPCMethodNotFound = -32601
	RPCInternalError  = -32000
)

type RPCRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Method  string    `json:"method"`
	Params  RPCParams `json:"params"`
}

type RPCParams struct {
	Message json.RawMessage `json:"message"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// NewRequest frames msg for transport.
func NewRequest(msg Message) (RPCRequest, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return RPCRequest{}, err
	}
	return RPCRequest{
		JSONRPC: JSONRPCVersion,
		ID:      1,
		Method:  MethodHandle,
		Params:  RPCParams{Message: raw},
	}, nil
}

// NewResponse frames msg as the result for the request with the given id.
func NewResponse(id any, msg Message) (RPCResponse, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return RPCResponse{}, err
	}
	return RPCResponse{JSONRPC: JSONRPCVersion, ID: id, Result: raw}, nil
}

// NewErrorResponse frames a transport-level failure.
func NewErrorResponse(id any, code int, message string) RPCResponse {
	return RPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}
