package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"crypto-mcp/pkg/batch"
	"crypto-mcp/pkg/market"
)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// errorResult renders err as an isError tool result so the model sees the
// message instead of a protocol failure.
func errorResult(err error) (*mcp.CallToolResult, error) {
	var (
		ve  *market.ValidationError
		afe *batch.AllFailedError
		pe  *market.ProviderError
	)
	switch {
	case errors.As(err, &ve):
		return mcp.NewToolResultError(ve.Error()), nil
	case errors.As(err, &afe):
		return mcp.NewToolResultError(afe.Error()), nil
	case errors.As(err, &pe):
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", pe.Kind, err)), nil
	default:
		return mcp.NewToolResultError(err.Error()), nil
	}
}

// ErrorMarker is the per-symbol failure entry of a batch response.
type ErrorMarker struct {
	Kind    market.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// BatchResponse is the JSON shape returned by batch tools. Every requested
// symbol appears in exactly one of the two maps.
type BatchResponse[T any] struct {
	Results map[string][]T         `json:"results"`
	Errors  map[string]ErrorMarker `json:"errors"`
}

func newBatchResponse[T any](r batch.Result[T]) BatchResponse[T] {
	out := BatchResponse[T]{
		Results: make(map[string][]T, len(r)),
		Errors:  make(map[string]ErrorMarker),
	}
	for symbol, entry := range r {
		if entry.Err != nil {
			out.Errors[symbol] = ErrorMarker{Kind: market.KindOf(entry.Err), Message: entry.Err.Error()}
			continue
		}
		records := entry.Records
		if records == nil {
			records = []T{}
		}
		out.Results[symbol] = records
	}
	return out
}
