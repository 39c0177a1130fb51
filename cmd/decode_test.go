package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/wormhole-demo/transfer-decoder/internal/decoder"
	"github.com/wormhole-demo/transfer-decoder/internal/tokenbridge"
)

func lunaVAA(t *testing.T, amount uint64) string {
	t.Helper()
	tr := tokenbridge.Transfer{
		Amount:         uint256.NewInt(amount),
		TokenChain:     3,
		RecipientChain: 3,
		Fee:            uint256.NewInt(0),
	}
	copy(tr.TokenAddress[27:], "uluna")
	tr.Recipient[31] = 0x01
	v := &vaaLib.VAA{
		Version:        1,
		Timestamp:      time.Unix(1_650_000_000, 0),
		EmitterChain:   vaaLib.ChainIDTerra,
		EmitterAddress: vaaLib.Address{31: 0x01},
		Sequence:       5,
		Payload:        tokenbridge.EncodeTransfer(tr),
	}
	raw, err := v.Marshal()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodeLines(t *testing.T) {
	in := strings.NewReader(lunaVAA(t, 1_500_000) + "\n\n" + lunaVAA(t, 3) + "\n")
	var out bytes.Buffer

	failures, err := decodeLines(context.Background(), decoder.New(nil, nil, decoder.Options{}), in, &out, func(int, error) bool {
		t.Fatal("unexpected failure")
		return false
	})
	require.NoError(t, err)
	require.Zero(t, failures)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "1.5", first["amount"])
	require.Equal(t, "LUNA", first["currency"])
	require.Equal(t, "terra", first["fromChain"])
}

func TestDecodeLinesStopsOnFailure(t *testing.T) {
	in := strings.NewReader("not base64!\n" + lunaVAA(t, 1) + "\n")
	dec := decoder.New(nil, nil, decoder.Options{})

	var out bytes.Buffer
	var failedLines []int
	failures, err := decodeLines(context.Background(), dec, in, &out, func(line int, err error) bool {
		failedLines = append(failedLines, line)
		return false
	})
	require.NoError(t, err)
	require.Equal(t, 1, failures)
	require.Equal(t, []int{1}, failedLines)
	require.Empty(t, out.String())
}

func TestDecodeLinesContinue(t *testing.T) {
	in := strings.NewReader("AQID\n" + lunaVAA(t, 1) + "\n")
	dec := decoder.New(nil, nil, decoder.Options{})

	var out bytes.Buffer
	failures, err := decodeLines(context.Background(), dec, in, &out, func(int, error) bool { return true })
	require.NoError(t, err)
	require.Equal(t, 1, failures)
	require.Equal(t, 1, strings.Count(out.String(), "\n"))
}
