package tangle

import (
	"bytes"
	"fmt"

	cm "github.com/mosaicnetworks/tangle/src/common"
	"github.com/mosaicnetworks/tangle/src/crypto"
)

// HashSize is the size in bytes of transaction, address, and bundle hashes.
const HashSize = crypto.HashSize

// Hash is a fixed-width digest.
type Hash [HashSize]byte

// NullHash is the all-zero hash. It references the genesis, and it is the
// sentinel value of the requested-hash field of gossip packets.
var NullHash Hash

// Pointer is a store handle for a transaction.
type Pointer uint64

// NullPointer is the pointer of the null hash.
const NullPointer Pointer = 0

// Hex returns the 0X-prefixed, uppercase hexadecimal encoding of the hash.
func (h Hash) Hex() string {
	return cm.EncodeToString(h[:])
}

// String implements the Stringer interface.
func (h Hash) String() string {
	return h.Hex()
}

// IsNull returns true for the all-zero hash.
func (h Hash) IsNull() bool {
	return h == NullHash
}

// Compare compares two hashes byte by byte.
func (h Hash) Compare(o Hash) int {
	return bytes.Compare(h[:], o[:])
}

// HashFromHex parses a hexadecimal hash, with or without the 0X prefix.
func HashFromHex(s string) (Hash, error) {
	var h Hash

	if len(s) >= 2 && (s[:2] == "0X" || s[:2] == "0x") {
		s = s[2:]
	}

	if len(s) != 2*HashSize {
		return h, fmt.Errorf("hash should have %d hex characters, not %d", 2*HashSize, len(s))
	}

	b, err := cm.DecodeFromString("0X" + s)
	if err != nil {
		return h, err
	}

	copy(h[:], b)

	return h, nil
}

// String implements the Stringer interface.
func (p Pointer) String() string {
	return fmt.Sprintf("%d", p)
}
