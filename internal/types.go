package internal

import (
	"github.com/wormhole-demo/transfer-decoder/internal/vaa"
)

type VAAData struct {
	Body       vaa.Body // Decoded VAA body
	RawBytes   []byte   // Raw VAA bytes
	ChainID    uint16   // Emitter chain ID (big-endian)
	EmitterHex string   // Hex-encoded emitter address, 64 characters
	Sequence   uint64   // VAA sequence number
	Key        string   // Digest of the body bytes
}
