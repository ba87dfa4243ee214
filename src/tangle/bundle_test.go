package tangle

import "testing"

func TestBundleInstances(t *testing.T) {
	tt := NewTestTangle(NullHash)

	alice := TestHash("alice")
	bob := TestHash("bob")

	t.Run("Valid", func(t *testing.T) {
		txs := tt.AddBundle(NullHash, NullHash, []Hash{alice, bob, NullHash}, []int64{-5, 5, 0})

		b, err := NewBundle(tt.Store, txs[0].Bundle)
		if err != nil {
			t.Fatal(err)
		}

		instance, ok := b.Instance(txs[0].Pointer)
		if !ok {
			t.Fatalf("bundle should have an instance at the tail")
		}
		if len(instance) != 3 {
			t.Fatalf("instance should have 3 transactions, not %d", len(instance))
		}
		for i, tx := range instance {
			if tx.Hash != txs[i].Hash {
				t.Fatalf("instance[%d] should be %s, not %s", i, txs[i].Hash, tx.Hash)
			}
		}
	})

	t.Run("Unbalanced", func(t *testing.T) {
		txs := tt.AddBundle(NullHash, NullHash, []Hash{alice, bob}, []int64{-5, 4})

		b, err := NewBundle(tt.Store, txs[0].Bundle)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := b.Instance(txs[0].Pointer); ok {
			t.Fatalf("unbalanced bundle should have no valid instance")
		}
	})

	t.Run("Incomplete", func(t *testing.T) {
		txs := tt.MakeBundle(NullHash, NullHash, []Hash{alice, bob}, []int64{-5, 5})
		tt.Insert(txs[0])

		b, err := NewBundle(tt.Store, txs[0].Bundle)
		if err != nil {
			t.Fatal(err)
		}
		if b.Len() != 0 {
			t.Fatalf("incomplete bundle should have no valid instance")
		}

		tt.Insert(txs[1])

		b, err = NewBundle(tt.Store, txs[0].Bundle)
		if err != nil {
			t.Fatal(err)
		}
		if b.Len() != 1 {
			t.Fatalf("completed bundle should have 1 valid instance, not %d", b.Len())
		}
	})
}
