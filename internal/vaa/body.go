package vaa

import (
	"fmt"

	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"
)

// Body structure:
//
//	0-3:   timestamp (4 bytes)
//	4-7:   nonce (4 bytes)
//	8-9:   emitter chain (2 bytes)
//	10-41: emitter address (32 bytes)
//	42-49: sequence (8 bytes)
//	50:    consistency level (1 byte)
//	51+:   payload
const MinBodyLength = 51

type Body struct {
	Timestamp uint32
	Nonce     uint32
	// EmitterChain is the big-endian reading of EmitterChainBytes.
	EmitterChain      vaaLib.ChainID
	EmitterChainBytes [2]byte
	EmitterAddress    vaaLib.Address
	Sequence          uint64
	ConsistencyLevel  uint8
	Payload           []byte
}

func DecodeBody(body []byte) (Body, error) {
	if len(body) < MinBodyLength {
		return Body{}, fmt.Errorf("%w: VAA body too short: %d bytes", ErrTruncated, len(body))
	}

	var b Body
	c := NewCursor(body)
	b.Timestamp, _ = c.Uint32()
	b.Nonce, _ = c.Uint32()

	chainBytes, _ := c.Take(2)
	copy(b.EmitterChainBytes[:], chainBytes)
	b.EmitterChain = vaaLib.ChainID(uint16(chainBytes[0])<<8 | uint16(chainBytes[1]))

	addr, _ := c.Take(32)
	copy(b.EmitterAddress[:], addr)

	b.Sequence, _ = c.Uint64()
	b.ConsistencyLevel, _ = c.Uint8()
	b.Payload = c.Rest()

	return b, nil
}

// ReversedChainID reverses the emitter chain bytes and combines them as a
// little-endian base-256 integer. For two bytes this always agrees with
// EmitterChain.
func (b Body) ReversedChainID() uint16 {
	reversed := [2]byte{b.EmitterChainBytes[1], b.EmitterChainBytes[0]}
	var id uint16
	for i, v := range reversed {
		id |= uint16(v) << (8 * i)
	}
	return id
}

// LegacyReversedChainID reproduces the historical combiner that weighted
// each reversed byte by 2^index instead of 256^index. It only matches
// EmitterChain for ids below 256.
func (b Body) LegacyReversedChainID() uint16 {
	reversed := [2]byte{b.EmitterChainBytes[1], b.EmitterChainBytes[0]}
	var id uint16
	for i, v := range reversed {
		id += uint16(v) << i
	}
	return id
}
