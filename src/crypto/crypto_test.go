package crypto

import (
	"bytes"
	"testing"
)

func TestTransactionHashDeterministic(t *testing.T) {
	a := TransactionHash([]byte("transaction"))
	b := TransactionHash([]byte("transaction"))
	if a != b {
		t.Fatalf("hashes of identical data should match")
	}

	c := TransactionHash([]byte("transactioN"))
	if a == c {
		t.Fatalf("hashes of different data should differ")
	}

	if bytes.Equal(a[:], SHA256([]byte("transaction"))) {
		t.Fatalf("transaction hash should be a double hash")
	}
}

func TestTrailingZeroBits(t *testing.T) {
	cases := []struct {
		digest []byte
		zeros  int
	}{
		{[]byte{0xFF, 0x01}, 0},
		{[]byte{0xFF, 0x02}, 1},
		{[]byte{0xFF, 0x80}, 7},
		{[]byte{0x01, 0x00}, 8},
		{[]byte{0x04, 0x00}, 10},
		{[]byte{0x00, 0x00}, 16},
	}

	for _, c := range cases {
		if z := TrailingZeroBits(c.digest); z != c.zeros {
			t.Fatalf("TrailingZeroBits(%x) should be %d, not %d", c.digest, c.zeros, z)
		}
	}
}
