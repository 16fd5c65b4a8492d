package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandKind(t *testing.T) {
	cmd := NewScanCommand("cmd-1", "/data", true)
	assert.Equal(t, CommandKindScan, cmd.Kind())
	assert.Equal(t, "/data", cmd.Payload.Scan.Path)
	assert.True(t, cmd.Payload.Scan.Recursive)

	assert.Equal(t, CommandKindUnknown, Command{ID: "cmd-2"}.Kind())
}

func TestCommandWireFormat(t *testing.T) {
	data, err := json.Marshal(NewScanCommand("cmd-1", "/data", true))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"cmd-1","payload":{"scan":{"path":"/data","recursive":true}}}`, string(data))

	// A payload from a newer hub decodes without error and is reported as unknown.
	var cmd Command
	require.NoError(t, json.Unmarshal([]byte(`{"id":"cmd-9","payload":{"update":{"version":"2"}}}`), &cmd))
	assert.Equal(t, CommandKindUnknown, cmd.Kind())
}
