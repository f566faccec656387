package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTrades(t *testing.T) {
	input := `[
		{"txHash": "0x01", "contract": "0xABCDEF", "quantity": 2, "price": 51.5, "timestamp": "2024-06-01T10:00:00Z"},
		{"txHash": "0x02", "contract": "0xabcdef", "quantity": 1, "price": 52, "timestamp": "2024-06-02T10:00:00Z"}
	]`

	trades, err := readTrades(strings.NewReader(input), "-")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "0xabcdef", trades[0].Contract)
	assert.Equal(t, 51.5, trades[0].Price)
	assert.Equal(t, 2, trades[1].Timestamp.Day())
}

func TestReadTradesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"txHash":"0x01","contract":"0xaa","quantity":1,"price":1,"timestamp":"2024-06-01T00:00:00Z"}]`), 0o600))

	trades, err := readTrades(nil, path)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestReadTradesRejectsIncomplete(t *testing.T) {
	_, err := readTrades(strings.NewReader(`[{"txHash":"0x01","quantity":1}]`), "-")
	require.Error(t, err)

	_, err = readTrades(strings.NewReader(`{"not": "an array"}`), "-")
	require.Error(t, err)
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{{"portfolio"}, {"market"}, {"catalog", "refresh"}, {"migrate"}, {"trades", "import"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestMigrateRejectsUnknownAction(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrate", "sideways"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	require.Error(t, root.Execute())
}
