// Package wire implements the transport encoding of bus actions.
//
// A message on the wire is a single JSON string of the shape
// {"type": "<string>", "payload": <any JSON value>} with the payload
// omitted when absent. Encode and Decode are exact inverses for any
// well-formed action; malformed input is reported as a coded error,
// never as a panic escaping into the caller's control flow.
package wire

import (
	"encoding/json"

	"github.com/framebus/framebus/pkg/types"
)

// Encode serializes an action to its transport string
func Encode(action types.Action) (string, error) {
	if err := action.Validate(); err != nil {
		return "", types.WrapError(types.ErrCodeInvalid, "cannot encode action", err)
	}

	data, err := json.Marshal(action)
	if err != nil {
		return "", types.WrapError(types.ErrCodeInternal, "failed to serialize action", err)
	}

	return string(data), nil
}

// Decode parses a transport string back into an action. Callers are
// expected to treat a decode failure as "ignore this message".
func Decode(data string) (types.Action, error) {
	var action types.Action
	if err := json.Unmarshal([]byte(data), &action); err != nil {
		return types.Action{}, types.WrapError(types.ErrCodeDecodeFailed, "message is not a well-formed action", err)
	}

	if action.Type == "" {
		return types.Action{}, types.NewError(types.ErrCodeDecodeFailed, "message lacks a string type field")
	}

	return action, nil
}
