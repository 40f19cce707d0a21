package icp

import (
	"crypto/sha256"
	"encoding/binary"
	"hash/crc32"

	"github.com/aviate-labs/agent-go/principal"
)

// SubaccountSize is the fixed ledger subaccount width.
const SubaccountSize = 32

// Subaccount is a 32-byte ledger subaccount.
type Subaccount [SubaccountSize]byte

// Bytes returns the subaccount as a slice for candid blob fields.
func (s Subaccount) Bytes() []byte {
	return s[:]
}

// NeuronStakeSubaccount derives the governance subaccount that holds a
// neuron's stake for the given controller and nonce:
// sha256(0x0c | "neuron-stake" | controller | nonce_be).
func NeuronStakeSubaccount(controller principal.Principal, nonce uint64) Subaccount {
	h := sha256.New()
	h.Write([]byte{0x0c})
	h.Write([]byte("neuron-stake"))
	h.Write(controller.Raw)
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], nonce)
	h.Write(be[:])

	var sub Subaccount
	copy(sub[:], h.Sum(nil))
	return sub
}

// SwapBuyerSubaccount derives the swap canister subaccount credited to
// a buyer: the buyer principal length-prefixed and zero-padded to 32
// bytes.
func SwapBuyerSubaccount(buyer principal.Principal) Subaccount {
	var sub Subaccount
	sub[0] = byte(len(buyer.Raw))
	copy(sub[1:], buyer.Raw)
	return sub
}

// AccountIdentifier computes the legacy 32-byte ledger account
// identifier for an owner and subaccount: a big-endian CRC32 of the
// SHA-224 domain hash, followed by the hash itself. The zero
// subaccount selects the owner's default account.
func AccountIdentifier(owner principal.Principal, sub Subaccount) []byte {
	h := sha256.New224()
	h.Write([]byte{0x0a})
	h.Write([]byte("account-id"))
	h.Write(owner.Raw)
	h.Write(sub[:])
	digest := h.Sum(nil)

	out := make([]byte, 4, 4+len(digest))
	binary.BigEndian.PutUint32(out[:4], crc32.ChecksumIEEE(digest))
	return append(out, digest...)
}
