package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/tribler/tsap/service/internal/infrastructure/tracing"
)

// Client calls methods on a remote Server
type Client struct {
	http     *resty.Client
	endpoint string
}

// NewClient creates a client posting to endpoint, e.g.
// http://127.0.0.1:8000/tribler
func NewClient(endpoint string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &Client{
		http:     httpClient,
		endpoint: endpoint,
	}
}

// Call invokes method with positional params and decodes the result into
// out, which may be nil. A JSON-RPC error is returned as *Error.
func (c *Client) Call(ctx context.Context, method string, out any, params ...any) error {
	if params == nil {
		params = []any{}
	}
	rawParams, err := sonic.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	req := Request{
		JSONRPC: Version,
		ID:      json.RawMessage(strconv.Quote(uuid.NewString())),
		Method:  method,
		Params:  rawParams,
	}

	r := c.http.R().SetContext(ctx).SetBody(req)
	if requestID := tracing.GetRequestID(ctx); requestID != "" {
		r.SetHeader(tracing.RequestIDHeader, requestID.String())
	}

	httpResp, err := r.Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	if httpResp.StatusCode() != http.StatusOK {
		return fmt.Errorf("call %s: unexpected status %d", method, httpResp.StatusCode())
	}

	var resp Response
	if err := sonic.Unmarshal(httpResp.Body(), &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
