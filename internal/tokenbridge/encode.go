package tokenbridge

import "encoding/binary"

// EncodeTransfer writes t as a Transfer payload, action byte included, using
// the documented layout. TokenIdentifier is ignored.
func EncodeTransfer(t Transfer) []byte {
	out := make([]byte, 1+TransferLength)
	out[0] = byte(ActionTransfer)
	msg := out[1:]

	if t.Amount != nil {
		amount := t.Amount.Bytes32()
		copy(msg[0:32], amount[:])
	}
	copy(msg[32:64], t.TokenAddress[:])
	binary.BigEndian.PutUint16(msg[64:66], t.TokenChain)
	copy(msg[66:98], t.Recipient[:])
	binary.BigEndian.PutUint16(msg[98:100], t.RecipientChain)
	if t.Fee != nil {
		fee := t.Fee.Bytes32()
		copy(msg[100:132], fee[:])
	}
	return out
}
