package ipc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, Message{Type: Bind, Data: []byte("main.30=tap:31")}))

	msg, err := ReadMessage(&buf)
	require.NoError(t, err)
	assert.Equal(t, Bind, msg.Type)
	assert.Equal(t, "main.30=tap:31", string(msg.Data))
}

func TestReadRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, Message{Type: Bind, Data: []byte("x")}))
	// Corrupt the declared size field to exceed MaxPayload.
	raw := buf.Bytes()
	raw[4], raw[5], raw[6], raw[7] = 0xff, 0xff, 0xff, 0x7f

	_, err := ReadMessage(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestSuccessFailHelpers(t *testing.T) {
	assert.Equal(t, Success, SuccessMessage("Success").Type)
	assert.Equal(t, "Success", string(SuccessMessage("Success").Data))
	assert.Equal(t, Fail, FailMessage("nope").Type)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "RELOAD", Reload.String())
	assert.Equal(t, "BIND", Bind.String())
	assert.Equal(t, "LAYER_LISTEN", LayerListen.String())
	assert.Equal(t, "SUCCESS", Success.String())
	assert.Equal(t, "FAIL", Fail.String())
}
