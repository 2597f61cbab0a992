package news

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCryptoSymbol(t *testing.T) {
	tests := []struct{ in, want string }{
		{"btc", "BTCUSD"},
		{" eth ", "ETHUSD"},
		{"BTCUSD", "BTCUSD"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, CryptoSymbol(tt.in), "CryptoSymbol(%q)", tt.in)
	}
}

func TestStripHTML(t *testing.T) {
	require.Equal(t, "Bitcoin & Ether rally", StripHTML("<p>Bitcoin &amp; Ether</p>\n<b>rally</b>"))
}

func TestHeadlinesCancelledContext(t *testing.T) {
	a := NewAlpaca("key", "secret", "http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Headlines(ctx, "btc", 5)
	require.Error(t, err)
}
