package crypto

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// HashSize is the size in bytes of a transaction digest.
const HashSize = chainhash.HashSize

// TransactionHash returns the double SHA256 digest of an encoded transaction.
// It is the content-addressed identity of the transaction.
func TransactionHash(data []byte) [HashSize]byte {
	return [HashSize]byte(chainhash.DoubleHashH(data))
}

// SHA256 returns the single SHA256 hash of the data.
func SHA256(data []byte) []byte {
	return chainhash.HashB(data)
}

// TrailingZeroBits counts the zero bits at the end of a digest. The last byte
// is the least significant.
func TrailingZeroBits(digest []byte) int {
	n := 0
	for i := len(digest) - 1; i >= 0; i-- {
		b := digest[i]
		if b == 0 {
			n += 8
			continue
		}
		for b&1 == 0 {
			n++
			b >>= 1
		}
		break
	}
	return n
}
