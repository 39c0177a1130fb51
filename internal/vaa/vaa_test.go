package vaa

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
)

func testBody(payload []byte) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint32(1_650_000_000))
	binary.Write(buf, binary.BigEndian, uint32(42))
	binary.Write(buf, binary.BigEndian, uint16(3))
	buf.Write(bytes.Repeat([]byte{0xaa}, 32))
	binary.Write(buf, binary.BigEndian, uint64(77))
	buf.WriteByte(15)
	buf.Write(payload)
	return buf.Bytes()
}

func testVAA(signatures int, body []byte) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(1)
	binary.Write(buf, binary.BigEndian, uint32(2))
	buf.WriteByte(byte(signatures))
	for i := 0; i < signatures; i++ {
		buf.WriteByte(byte(i))
		buf.Write(bytes.Repeat([]byte{0xee}, 65))
	}
	buf.Write(body)
	return buf.Bytes()
}

func TestDecodeEnvelope(t *testing.T) {
	body := testBody([]byte{0x01})
	raw := testVAA(2, body)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	require.Equal(t, uint8(1), env.Version)
	require.Equal(t, uint32(2), env.GuardianSetIndex)
	require.Equal(t, uint8(2), env.SignatureCount)
	require.Equal(t, 6+2*66, env.BodyOffset)
	require.Equal(t, body, env.Body)
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	_, err := DecodeEnvelope([]byte{1, 0, 0, 0})
	require.ErrorIs(t, err, ErrMalformedEnvelope)

	// 3 signatures announced, only one present.
	raw := testVAA(1, nil)
	raw[5] = 3
	_, err = DecodeEnvelope(raw)
	require.ErrorIs(t, err, ErrMalformedEnvelope)

	// Header with no signatures and no body is structurally valid.
	env, err := DecodeEnvelope([]byte{1, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	require.Empty(t, env.Body)
}

func TestDecodeEnvelopeIgnoresVersion(t *testing.T) {
	raw := testVAA(0, testBody(nil))
	raw[0] = 9
	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	require.Equal(t, uint8(9), env.Version)
}

func TestDecodeBase64(t *testing.T) {
	raw := testVAA(0, testBody(nil))
	decoded, err := DecodeBase64(base64.StdEncoding.EncodeToString(raw) + "\n")
	require.NoError(t, err)
	require.Equal(t, raw, decoded)

	_, err = DecodeBase64("not base64!")
	require.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestDecodeBody(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}
	b, err := DecodeBody(testBody(payload))
	require.NoError(t, err)
	require.Equal(t, uint32(1_650_000_000), b.Timestamp)
	require.Equal(t, uint32(42), b.Nonce)
	require.Equal(t, vaaLib.ChainID(3), b.EmitterChain)
	require.Equal(t, bytes.Repeat([]byte{0xaa}, 32), b.EmitterAddress[:])
	require.Equal(t, uint64(77), b.Sequence)
	require.Equal(t, uint8(15), b.ConsistencyLevel)
	require.Equal(t, payload, b.Payload)
}

func TestDecodeBodyTruncated(t *testing.T) {
	_, err := DecodeBody(make([]byte, MinBodyLength-1))
	require.ErrorIs(t, err, ErrTruncated)

	b, err := DecodeBody(make([]byte, MinBodyLength))
	require.NoError(t, err)
	require.Empty(t, b.Payload)
}

func TestChainIDInterpretations(t *testing.T) {
	tests := []struct {
		name      string
		bytes     [2]byte
		bigEndian uint16
		reversed  uint16
		legacy    uint16
	}{
		{"terra", [2]byte{0x00, 0x03}, 3, 3, 3},
		{"low byte max", [2]byte{0x00, 0xff}, 255, 255, 255},
		{"high byte set", [2]byte{0x01, 0x00}, 256, 256, 2},
		{"testnet range", [2]byte{0x27, 0x13}, 10003, 10003, 0x13 + 0x27*2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := testBody(nil)
			body[8], body[9] = tt.bytes[0], tt.bytes[1]
			b, err := DecodeBody(body)
			require.NoError(t, err)
			require.Equal(t, vaaLib.ChainID(tt.bigEndian), b.EmitterChain)
			require.Equal(t, tt.reversed, b.ReversedChainID())
			require.Equal(t, tt.legacy, b.LegacyReversedChainID())
		})
	}
}

// The SDK encoder serves as an independent reference for the offsets.
func TestDecodeMatchesSDKEncoding(t *testing.T) {
	v := &vaaLib.VAA{
		Version:          1,
		GuardianSetIndex: 4,
		Signatures: []*vaaLib.Signature{
			{Index: 0, Signature: [65]byte{1}},
			{Index: 7, Signature: [65]byte{2}},
		},
		Timestamp:        time.Unix(1_640_000_000, 0),
		Nonce:            12345,
		Sequence:         987654321,
		ConsistencyLevel: 1,
		EmitterChain:     vaaLib.ChainIDTerra,
		EmitterAddress:   vaaLib.Address{31: 0x01},
		Payload:          []byte{0x01, 0xde, 0xad},
	}
	raw, err := v.Marshal()
	require.NoError(t, err)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	require.Equal(t, uint8(2), env.SignatureCount)
	require.Equal(t, uint32(4), env.GuardianSetIndex)

	b, err := DecodeBody(env.Body)
	require.NoError(t, err)
	require.Equal(t, uint32(v.Timestamp.Unix()), b.Timestamp)
	require.Equal(t, v.Nonce, b.Nonce)
	require.Equal(t, v.Sequence, b.Sequence)
	require.Equal(t, v.EmitterChain, b.EmitterChain)
	require.Equal(t, v.EmitterAddress, b.EmitterAddress)
	require.Equal(t, v.ConsistencyLevel, b.ConsistencyLevel)
	require.Equal(t, v.Payload, b.Payload)
}
