package tokenbridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/wormhole-demo/transfer-decoder/internal/vaa"
)

// Action is the leading byte of a Token Bridge payload.
type Action uint8

const (
	ActionTransfer            Action = 1
	ActionAttestMeta          Action = 2
	ActionTransferWithPayload Action = 3
)

func (a Action) String() string {
	switch a {
	case ActionTransfer:
		return "Transfer"
	case ActionAttestMeta:
		return "AttestMeta"
	case ActionTransferWithPayload:
		return "TransferWithPayload"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(a))
	}
}

var ErrUnsupportedAction = errors.New("unsupported token bridge action")

type UnsupportedActionError struct {
	Action Action
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedAction, e.Action)
}

func (e *UnsupportedActionError) Is(target error) bool {
	return target == ErrUnsupportedAction
}

// Layout selects which bytes of the transfer body identify the token.
type Layout int

const (
	// LayoutDocumented follows the Token Bridge wire format:
	//   0-31:    amount (uint256)
	//   32-63:   token address
	//   64-65:   token chain
	//   66-97:   recipient
	//   98-99:   recipient chain
	//   100-131: fee (uint256)
	// The token identifier is the 32 byte token address.
	LayoutDocumented Layout = iota

	// LayoutLegacy keys the token on the 40 bytes at 32-71, which overlap
	// the first six bytes of the recipient. Historical records produced
	// with this identifier can only be matched using this layout.
	LayoutLegacy
)

func (l Layout) String() string {
	if l == LayoutLegacy {
		return "legacy"
	}
	return "documented"
}

func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "documented":
		return LayoutDocumented, nil
	case "legacy":
		return LayoutLegacy, nil
	default:
		return 0, fmt.Errorf("unknown payload layout %q (valid: documented, legacy)", s)
	}
}

const (
	TransferLength = 132

	legacyTokenIdentifierLength = 40
)

type Transfer struct {
	Amount          *uint256.Int
	TokenAddress    [32]byte
	TokenChain      uint16
	TokenIdentifier []byte
	Recipient       [32]byte
	RecipientChain  uint16
	Fee             *uint256.Int
}

// DecodeAction splits a payload into its action byte and message body.
func DecodeAction(payload []byte) (Action, []byte, error) {
	if len(payload) == 0 {
		return 0, nil, fmt.Errorf("%w: empty token bridge payload", vaa.ErrTruncated)
	}
	return Action(payload[0]), payload[1:], nil
}

// DecodeTransfer decodes a Transfer payload. Any other action is rejected
// with an *UnsupportedActionError.
func DecodeTransfer(payload []byte, layout Layout) (Transfer, error) {
	action, msg, err := DecodeAction(payload)
	if err != nil {
		return Transfer{}, err
	}
	if action != ActionTransfer {
		return Transfer{}, &UnsupportedActionError{Action: action}
	}
	if len(msg) < TransferLength {
		return Transfer{}, fmt.Errorf("%w: transfer payload too short: %d bytes", vaa.ErrTruncated, len(msg))
	}

	var t Transfer
	c := vaa.NewCursor(msg[:TransferLength])

	amount, _ := c.Take(32)
	t.Amount = new(uint256.Int).SetBytes(amount)

	tokenAddress, _ := c.Take(32)
	copy(t.TokenAddress[:], tokenAddress)
	t.TokenChain, _ = c.Uint16()

	recipient, _ := c.Take(32)
	copy(t.Recipient[:], recipient)
	t.RecipientChain, _ = c.Uint16()

	fee, _ := c.Take(32)
	t.Fee = new(uint256.Int).SetBytes(fee)

	switch layout {
	case LayoutLegacy:
		t.TokenIdentifier = append([]byte(nil), msg[32:32+legacyTokenIdentifierLength]...)
	default:
		t.TokenIdentifier = append([]byte(nil), t.TokenAddress[:]...)
	}

	return t, nil
}
