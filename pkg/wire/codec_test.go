package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framebus/framebus/pkg/types"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		action types.Action
	}{
		{
			name:   "type only",
			action: types.NewAction("PING"),
		},
		{
			name:   "reserved ready type",
			action: types.NewAction(types.ActionTypeReady),
		},
		{
			name:   "object payload",
			action: types.NewActionWithPayload("USER-UPDATED", json.RawMessage(`{"id":42,"name":"ada"}`)),
		},
		{
			name:   "array payload",
			action: types.NewActionWithPayload("BATCH", json.RawMessage(`[1,2,3]`)),
		},
		{
			name:   "string payload",
			action: types.NewActionWithPayload("GREETING", json.RawMessage(`"hello"`)),
		},
		{
			name:   "null payload",
			action: types.NewActionWithPayload("EMPTY", json.RawMessage(`null`)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.action)
			require.NoError(t, err)

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.action, decoded)
		})
	}
}

func TestEncodeRejectsEmptyType(t *testing.T) {
	_, err := Encode(types.Action{})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeInvalid, types.GetErrorCode(err))
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "not json"},
		{name: "empty string", data: ""},
		{name: "json array", data: `[1,2,3]`},
		{name: "missing type", data: `{"payload":{"a":1}}`},
		{name: "empty type", data: `{"type":""}`},
		{name: "numeric type", data: `{"type":123}`},
		{name: "truncated object", data: `{"type":"PING"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
			assert.Equal(t, types.ErrCodeDecodeFailed, types.GetErrorCode(err))
		})
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	action, err := Decode(`{"type":"PING","extra":true}`)
	require.NoError(t, err)
	assert.Equal(t, types.ActionType("PING"), action.Type)
	assert.Nil(t, action.Payload)
}

func TestEncodeOmitsAbsentPayload(t *testing.T) {
	encoded, err := Encode(types.NewAction("PING"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PING"}`, encoded)
}
