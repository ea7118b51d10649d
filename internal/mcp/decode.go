package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/away0419/eunoia/internal/errors"
)

// decode unmarshals MCP request arguments into a typed struct.
// Unknown argument names are rejected so typos surface as INVALID_REQUEST.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	args := req.GetArguments()
	if args == nil {
		return result, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return result, errors.NewInvalidRequest(fmt.Sprintf("marshal args: %v", err))
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&result); err != nil {
		return result, errors.NewInvalidRequest(fmt.Sprintf("invalid arguments: %v", err))
	}
	return result, nil
}
