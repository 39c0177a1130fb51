// Package recipient renders Token Bridge recipient fields as Terra
// bech32 account addresses.
package recipient

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	DefaultPrefix = "terra"

	// Cosmos SDK accounts are 20 bytes, left-padded with zeros to 32 bytes
	// in the Wormhole recipient field.
	AccountLength = 20
	FieldLength   = 32
)

var ErrRecipientUnresolved = errors.New("recipient is not a wallet address")

type Reencoder struct {
	prefix string
}

func NewReencoder(prefix string) *Reencoder {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Reencoder{prefix: prefix}
}

// Reencode converts a zero-padded recipient field to a bech32 address.
// Non-zero padding means the field holds something other than a 20 byte
// account, such as an asset address, and yields ErrRecipientUnresolved.
func (r *Reencoder) Reencode(raw [FieldLength]byte) (string, error) {
	padding := raw[:FieldLength-AccountLength]
	for i, b := range padding {
		if b != 0 {
			return "", fmt.Errorf("%w: non-zero padding byte 0x%02x at offset %d", ErrRecipientUnresolved, b, i)
		}
	}

	account := raw[FieldLength-AccountLength:]
	groups, err := bech32.ConvertBits(account, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecipientUnresolved, err)
	}

	addr, err := bech32.Encode(r.prefix, groups)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecipientUnresolved, err)
	}
	return addr, nil
}

// Reencode uses the default terra prefix.
func Reencode(raw [FieldLength]byte) (string, error) {
	return NewReencoder(DefaultPrefix).Reencode(raw)
}
