package types

import "encoding/json"

// ActionType identifies the kind of an action and acts as the dispatch key
type ActionType string

// ActionTypeReady is the reserved handshake type a child sends once it is
// ready to receive messages. The bus imposes no payload contract on it.
const ActionTypeReady ActionType = "IFRAME-LOADED"

// Action is the unit message exchanged over the bus: a type tag plus an
// opaque payload. The bus never inspects or mutates the payload; ownership
// of its contents belongs to the application layer on both ends.
type Action struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewAction creates an action with the given type and no payload
func NewAction(actionType ActionType) Action {
	return Action{Type: actionType}
}

// NewActionWithPayload creates an action carrying an already-serialized payload
func NewActionWithPayload(actionType ActionType, payload json.RawMessage) Action {
	return Action{Type: actionType, Payload: payload}
}

// Validate checks that the action is well-formed
func (a Action) Validate() error {
	if a.Type == "" {
		return NewError(ErrCodeInvalid, "action type cannot be empty")
	}
	return nil
}

// Callback handles an action delivered to a subscriber
type Callback func(action Action)
