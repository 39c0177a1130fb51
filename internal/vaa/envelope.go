package vaa

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// VAA header layout:
//
//	0:   version (1 byte)
//	1-4: guardian set index (4 bytes)
//	5:   signature count (1 byte)
//	6+:  signatures (66 bytes each: guardian index + 65 byte signature)
//
// The body follows the last signature.
const (
	HeaderLength    = 6
	SignatureLength = 66
)

// Envelope is the header of a VAA. Signatures are skipped, never decoded;
// callers either verified them upstream or accept unverified data.
type Envelope struct {
	Version          uint8
	GuardianSetIndex uint32
	SignatureCount   uint8
	BodyOffset       int
	Body             []byte
}

// DecodeBase64 decodes the transport encoding of a VAA.
func DecodeBase64(text string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformedEnvelope, err)
	}
	return raw, nil
}

// DecodeEnvelope reads the VAA header and slices out the body.
// The version byte is retained but not validated.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	if len(raw) < HeaderLength {
		return Envelope{}, fmt.Errorf("%w: VAA too short: %d bytes", ErrMalformedEnvelope, len(raw))
	}

	c := NewCursor(raw)
	version, _ := c.Uint8()
	guardianSetIndex, _ := c.Uint32()
	signatureCount, _ := c.Uint8()

	bodyOffset := HeaderLength + int(signatureCount)*SignatureLength
	if bodyOffset > len(raw) {
		return Envelope{}, fmt.Errorf("%w: VAA too short for %d signatures: %d bytes",
			ErrMalformedEnvelope, signatureCount, len(raw))
	}

	if err := c.Skip(int(signatureCount) * SignatureLength); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	return Envelope{
		Version:          version,
		GuardianSetIndex: guardianSetIndex,
		SignatureCount:   signatureCount,
		BodyOffset:       bodyOffset,
		Body:             c.Rest(),
	}, nil
}
