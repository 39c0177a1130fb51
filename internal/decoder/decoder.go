// Package decoder turns base64 Token Bridge transfer VAAs into
// ParsedTransfer records.
//
// A Decoder holds only immutable configuration and may be shared between
// goroutines. The AddressDirectory is the only blocking dependency; it
// receives the caller's context and owns its own retries and caching.
package decoder

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/wormhole-demo/transfer-decoder/internal/chains"
	"github.com/wormhole-demo/transfer-decoder/internal/currency"
	"github.com/wormhole-demo/transfer-decoder/internal/recipient"
	"github.com/wormhole-demo/transfer-decoder/internal/tokenbridge"
	"github.com/wormhole-demo/transfer-decoder/internal/vaa"
)

type ParsedTransfer struct {
	Timestamp uint32 `json:"timestamp"`
	Nonce     uint32 `json:"nonce"`
	// BodyEmitterChainID is the big-endian reading of the emitter chain.
	BodyEmitterChainID uint16 `json:"bodyEmitterChainId"`
	EmitterAddress     string `json:"emitterAddress"`
	Sequence           uint64 `json:"sequence"`
	// FromChainID is the reversed-byte reading used for FromChainName.
	FromChainID   uint16 `json:"fromChainId"`
	FromChainName string `json:"fromChain"`

	// Recipient is a bech32 address, or the base64 raw field when
	// RecipientUnresolved is set.
	Recipient           string `json:"recipient"`
	RecipientRaw        string `json:"recipientRaw"`
	RecipientChain      uint16 `json:"recipientChain"`
	RecipientUnresolved error  `json:"-"`
	Diagnostic          string `json:"diagnostic,omitempty"`

	Amount          decimal.Decimal `json:"amount"`
	RawAmount       *uint256.Int    `json:"rawAmount"`
	Currency        string          `json:"currency"`
	Decimals        uint8           `json:"decimals"`
	AssetIdentifier string          `json:"assetIdentifier,omitempty"`
	TokenChain      uint16          `json:"tokenChain"`
	Fee             *uint256.Int    `json:"fee"`
}

type Options struct {
	// Layout selects the token identifier bytes. Defaults to the documented layout.
	Layout tokenbridge.Layout
	// LegacyChainIDs reproduces the historical 2^index chain id combiner
	// for the FromChain lookup.
	LegacyChainIDs bool
	// RecipientPrefix is the bech32 human-readable part. Defaults to "terra".
	RecipientPrefix string
}

type Decoder struct {
	chains    *chains.Table
	resolver  *currency.Resolver
	reencoder *recipient.Reencoder
	opts      Options
}

// New creates a decoder. A nil table uses chains.Default().
func New(table *chains.Table, directory currency.AddressDirectory, opts Options) *Decoder {
	if table == nil {
		table = chains.Default()
	}
	return &Decoder{
		chains:    table,
		resolver:  currency.NewResolver(directory),
		reencoder: recipient.NewReencoder(opts.RecipientPrefix),
		opts:      opts,
	}
}

// DecodeTransfer decodes with the default chain table and options.
func DecodeTransfer(ctx context.Context, text string, directory currency.AddressDirectory) (*ParsedTransfer, error) {
	return New(nil, directory, Options{}).DecodeTransfer(ctx, text)
}

// DecodeTransfer decodes a base64 encoded VAA.
func (d *Decoder) DecodeTransfer(ctx context.Context, text string) (*ParsedTransfer, error) {
	raw, err := vaa.DecodeBase64(text)
	if err != nil {
		return nil, err
	}
	return d.DecodeTransferBytes(ctx, raw)
}

// DecodeTransferBytes decodes a VAA that is already base64-decoded.
// Structural and currency errors abort with no result; an unresolvable
// recipient is reported through ParsedTransfer.RecipientUnresolved.
func (d *Decoder) DecodeTransferBytes(ctx context.Context, raw []byte) (*ParsedTransfer, error) {
	env, err := vaa.DecodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	body, err := vaa.DecodeBody(env.Body)
	if err != nil {
		return nil, err
	}

	transfer, err := tokenbridge.DecodeTransfer(body.Payload, d.opts.Layout)
	if err != nil {
		return nil, err
	}

	fromChainID := body.ReversedChainID()
	if d.opts.LegacyChainIDs {
		fromChainID = body.LegacyReversedChainID()
	}
	fromChainName, err := d.chains.Name(fromChainID)
	if err != nil {
		return nil, err
	}

	resolution, err := d.resolver.Resolve(ctx, transfer.TokenIdentifier, transfer.Amount)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedTransfer{
		Timestamp:          body.Timestamp,
		Nonce:              body.Nonce,
		BodyEmitterChainID: uint16(body.EmitterChain),
		EmitterAddress:     hexutil.Encode(body.EmitterAddress[:]),
		Sequence:           body.Sequence,
		FromChainID:        fromChainID,
		FromChainName:      fromChainName,
		RecipientRaw:       hexutil.Encode(transfer.Recipient[:]),
		RecipientChain:     transfer.RecipientChain,
		Amount:             resolution.Amount,
		RawAmount:          transfer.Amount,
		Currency:           resolution.Currency,
		Decimals:           resolution.Decimals,
		AssetIdentifier:    resolution.AssetIdentifier,
		TokenChain:         transfer.TokenChain,
		Fee:                transfer.Fee,
	}

	addr, err := d.reencoder.Reencode(transfer.Recipient)
	if err != nil {
		parsed.Recipient = base64.StdEncoding.EncodeToString(transfer.Recipient[:])
		parsed.RecipientUnresolved = err
		parsed.Diagnostic = err.Error()
	} else {
		parsed.Recipient = addr
	}

	return parsed, nil
}

// IsStructural reports whether err aborts a decode, as opposed to a
// directory or configuration problem that may succeed on retry.
func IsStructural(err error) bool {
	return errors.Is(err, vaa.ErrMalformedEnvelope) ||
		errors.Is(err, vaa.ErrTruncated) ||
		errors.Is(err, tokenbridge.ErrUnsupportedAction)
}

func (p *ParsedTransfer) String() string {
	return fmt.Sprintf("%s %s from %s (seq %d) to %s", p.Amount.String(), p.Currency, p.FromChainName, p.Sequence, p.Recipient)
}
