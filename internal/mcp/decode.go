package mcp

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode converts tool arguments into a typed request. A wrongly typed
// argument is reported by name.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var input T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return input, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &input); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) && typeErr.Field != "" {
			return input, fmt.Errorf("argument %q must be a %s", typeErr.Field, typeErr.Type)
		}
		return input, fmt.Errorf("unmarshal args: %w", err)
	}
	return input, nil
}
