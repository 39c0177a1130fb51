package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wormhole-demo/transfer-decoder/internal/tokenbridge"
	"github.com/wormhole-demo/transfer-decoder/internal/vaa"
)

// computeVAAKey computes a unique key for a VAA based on its body bytes
func computeVAAKey(body []byte) string {
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}

// newVAAData decodes the envelope and body of a raw VAA.
func newVAAData(vaaBytes []byte) (*VAAData, error) {
	env, err := vaa.DecodeEnvelope(vaaBytes)
	if err != nil {
		return nil, err
	}
	body, err := vaa.DecodeBody(env.Body)
	if err != nil {
		return nil, err
	}
	return &VAAData{
		Body:       body,
		RawBytes:   vaaBytes,
		ChainID:    uint16(body.EmitterChain),
		EmitterHex: hex.EncodeToString(body.EmitterAddress[:]),
		Sequence:   body.Sequence,
		Key:        computeVAAKey(env.Body),
	}, nil
}

// NormalizeEmitter strips 0x, lowercases and left-pads to 64 characters.
func NormalizeEmitter(addr string) string {
	if addr == "" {
		return ""
	}
	addr = strings.ToLower(strings.TrimPrefix(addr, "0x"))
	if len(addr) < 64 {
		addr = strings.Repeat("0", 64-len(addr)) + addr
	}
	return addr
}

// logPayloadSummary logs the Token Bridge action and size at debug level
func logPayloadSummary(logger *zap.Logger, payload []byte) {
	if len(payload) == 0 {
		logger.Debug("Empty payload")
		return
	}
	logger.Debug("Payload parsed",
		zap.Stringer("action", tokenbridge.Action(payload[0])),
		zap.Int("length", len(payload)),
		zap.String("rawHex", fmt.Sprintf("0x%x", payload)))
}
