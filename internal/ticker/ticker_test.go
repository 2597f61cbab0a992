package ticker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRestartInvalidatesPendingTick(t *testing.T) {
	h := New("rotation", time.Millisecond)
	require.False(t, h.Active(), "new handle is active")

	require.NotNil(t, h.Restart())
	old := TickMsg{ID: "rotation", Gen: h.gen}
	require.True(t, h.Accept(old), "current tick rejected")

	h.Restart()
	require.False(t, h.Accept(old), "tick from a replaced chain was accepted")
	require.True(t, h.Accept(TickMsg{ID: "rotation", Gen: h.gen}), "tick from the new chain was rejected")
}

func TestStopDropsTicks(t *testing.T) {
	h := New("sync", time.Millisecond)
	h.Restart()
	pending := TickMsg{ID: "sync", Gen: h.gen}
	h.Stop()
	require.False(t, h.Active())
	require.False(t, h.Accept(pending), "tick accepted after Stop")
	require.Nil(t, h.Next(), "Next returned a cmd on a stopped handle")
}

func TestAcceptChecksID(t *testing.T) {
	a := New("sync", time.Millisecond)
	b := New("rotation", time.Millisecond)
	a.Restart()
	b.Restart()
	require.False(t, a.Accept(TickMsg{ID: "rotation", Gen: a.gen}), "handle accepted another handle's tick")
}

func TestTickCmdCarriesGeneration(t *testing.T) {
	h := New("sync", time.Millisecond)
	cmd := h.Restart()
	msg, ok := cmd().(TickMsg)
	require.True(t, ok, "cmd did not produce a TickMsg")
	require.True(t, h.Accept(msg))
	require.NotNil(t, h.Next(), "Next returned nil on an active handle")
}
