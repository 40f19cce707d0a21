package icp

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/aviate-labs/agent-go/principal"
)

func testPrincipal(b ...byte) principal.Principal {
	return principal.Principal{Raw: b}
}

func TestNeuronStakeSubaccount(t *testing.T) {
	controller := testPrincipal(1, 2, 3, 4)
	nonce := uint64(1)

	got := NeuronStakeSubaccount(controller, nonce)

	preimage := []byte{0x0c}
	preimage = append(preimage, []byte("neuron-stake")...)
	preimage = append(preimage, controller.Raw...)
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], nonce)
	preimage = append(preimage, be[:]...)
	want := sha256.Sum256(preimage)

	if got != Subaccount(want) {
		t.Errorf("subaccount = %x, want %x", got, want)
	}
}

func TestNeuronStakeSubaccountVariesWithNonce(t *testing.T) {
	controller := testPrincipal(9, 9, 9)
	if NeuronStakeSubaccount(controller, 1) == NeuronStakeSubaccount(controller, 2) {
		t.Error("different nonces produced the same subaccount")
	}
}

func TestSwapBuyerSubaccount(t *testing.T) {
	buyer := testPrincipal(0xAA, 0xBB, 0xCC)
	sub := SwapBuyerSubaccount(buyer)

	if sub[0] != 3 {
		t.Errorf("length prefix = %d, want 3", sub[0])
	}
	if !bytes.Equal(sub[1:4], buyer.Raw) {
		t.Errorf("principal bytes = %x, want %x", sub[1:4], buyer.Raw)
	}
	for i := 4; i < SubaccountSize; i++ {
		if sub[i] != 0 {
			t.Errorf("byte %d = %x, want zero padding", i, sub[i])
		}
	}
}

func TestAccountIdentifier(t *testing.T) {
	owner := testPrincipal(1, 2, 3)
	var sub Subaccount

	id := AccountIdentifier(owner, sub)
	if len(id) != 32 {
		t.Fatalf("account identifier length = %d, want 32", len(id))
	}

	wantCRC := crc32.ChecksumIEEE(id[4:])
	gotCRC := binary.BigEndian.Uint32(id[:4])
	if gotCRC != wantCRC {
		t.Errorf("crc prefix = %08x, want %08x", gotCRC, wantCRC)
	}

	h := sha256.New224()
	h.Write([]byte{0x0a})
	h.Write([]byte("account-id"))
	h.Write(owner.Raw)
	h.Write(sub[:])
	if !bytes.Equal(id[4:], h.Sum(nil)) {
		t.Errorf("digest = %x, want %x", id[4:], h.Sum(nil))
	}
}

func TestAccountIdentifierVariesWithSubaccount(t *testing.T) {
	owner := testPrincipal(7)
	var a, b Subaccount
	b[31] = 1
	if bytes.Equal(AccountIdentifier(owner, a), AccountIdentifier(owner, b)) {
		t.Error("different subaccounts produced the same account identifier")
	}
}
