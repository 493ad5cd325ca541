package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/agent-league/protocol"
)

// messageDispatch turns one validated message into its reply. raw carries
// the full wire object so dispatchers can decode the flat payload fields.
type messageDispatch func(ctx context.Context, env protocol.Envelope, raw []byte) (protocol.Message, error)

// serveMCP implements the JSON-RPC surface shared by all three agent
// roles: one POST endpoint, one method, one message per call. Protocol
// failures travel inside the result as LEAGUE_ERROR; the JSON-RPC error
// object is reserved for transport-level problems.
func serveMCP(sender func() string, dispatch messageDispatch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req protocol.RPCRequest
		if err := readJSON(w, r, &req); err != nil {
			writeRPC(w, r, protocol.NewErrorResponse(nil, protocol.RPCParseError, err.Error()))
			return
		}
		if req.JSONRPC != protocol.JSONRPCVersion {
			writeRPC(w, r, protocol.NewErrorResponse(req.ID, protocol.RPCInvalidRequest, "jsonrpc must be \"2.0\""))
			return
		}
		if req.Method != protocol.MethodHandle {
			writeRPC(w, r, protocol.NewErrorResponse(req.ID, protocol.RPCMethodNotFound, "unknown method "+req.Method))
			return
		}
		if len(req.Params.Message) == 0 {
			writeRPC(w, r, protocol.NewErrorResponse(req.ID, protocol.RPCInvalidRequest, "params.message is required"))
			return
		}

		env, err := protocol.ParseEnvelope(req.Params.Message)
		if err != nil {
			if perr := protocolError(err, env.MessageType); perr != nil {
				writeRPCMessage(w, r, req.ID, protocol.ErrorMessage(env, sender(), perr))
				return
			}
			writeRPC(w, r, protocol.NewErrorResponse(req.ID, protocol.RPCInvalidRequest, err.Error()))
			return
		}

		reply, err := dispatch(r.Context(), env, req.Params.Message)
		if err != nil {
			if perr := protocolError(err, env.MessageType); perr != nil {
				writeRPCMessage(w, r, req.ID, protocol.ErrorMessage(env, sender(), perr))
				return
			}
			writeRPC(w, r, protocol.NewErrorResponse(req.ID, protocol.RPCInternalError, err.Error()))
			return
		}
		writeRPCMessage(w, r, req.ID, reply)
	}
}

func writeRPCMessage(w http.ResponseWriter, r *http.Request, id any, msg protocol.Message) {
	resp, err := protocol.NewResponse(id, msg)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	writeRPC(w, r, resp)
}

// writeRPC always answers 200: JSON-RPC carries its own error channel.
func writeRPC(w http.ResponseWriter, r *http.Request, resp protocol.RPCResponse) {
	if err := writeJSON(w, http.StatusOK, resp, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
