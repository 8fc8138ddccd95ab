package rpc

import (
	"bytes"
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Version is the only protocol version accepted
const Version = "2.0"

// maxBodySize bounds a single request body
const maxBodySize = 4 << 20

var nullID = json.RawMessage("null")

// decoder keeps integers exact so sizes above 2^53 survive
var decoder = sonic.Config{UseNumber: true}.Froze()

// Request is a JSON-RPC 2.0 request with positional params
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func decodeRequest(body []byte) (Request, Params, *Error) {
	var req Request

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return req, nil, NewError(CodeInvalidRequest, "empty request")
	}
	if !decoder.Valid(body) {
		return req, nil, NewError(CodeParseError, "parse error")
	}
	if body[0] == '[' {
		return req, nil, NewError(CodeInvalidRequest, "batch requests are not supported")
	}
	if err := decoder.Unmarshal(body, &req); err != nil {
		return Request{}, nil, NewError(CodeInvalidRequest, "invalid request: %v", err)
	}
	if req.JSONRPC != Version {
		return req, nil, NewError(CodeInvalidRequest, "jsonrpc must be %q", Version)
	}
	if req.Method == "" {
		return req, nil, NewError(CodeInvalidRequest, "method is required")
	}

	params, rpcErr := decodeParams(req.Params)
	if rpcErr != nil {
		return req, nil, rpcErr
	}
	return req, params, nil
}

func decodeParams(raw json.RawMessage) (Params, *Error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, nullID) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var params []any
		if err := decoder.Unmarshal(raw, &params); err != nil {
			return nil, InvalidParams("invalid params: %v", err)
		}
		return Params(params), nil
	case '{':
		return nil, InvalidParams("named params are not supported")
	default:
		return nil, NewError(CodeInvalidRequest, "params must be an array")
	}
}

func resultResponse(id json.RawMessage, result any) Response {
	data, err := sonic.Marshal(result)
	if err != nil {
		return errorResponse(id, NewError(CodeInternal, "encode result: %v", err))
	}
	return Response{JSONRPC: Version, ID: responseID(id), Result: data}
}

func errorResponse(id json.RawMessage, rpcErr *Error) Response {
	return Response{JSONRPC: Version, ID: responseID(id), Error: rpcErr}
}

func responseID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return nullID
	}
	return id
}
