package service

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mosaicnetworks/tangle/src/common"
	"github.com/mosaicnetworks/tangle/src/peers"
	"github.com/mosaicnetworks/tangle/src/tangle"
)

type fakeNode struct {
	neighbors map[string]bool
	submitted [][]byte
}

func newFakeNode() *fakeNode {
	return &fakeNode{neighbors: make(map[string]bool)}
}

func (f *fakeNode) GetStats() map[string]string {
	return map[string]string{"transactions": "3"}
}

func (f *fakeNode) GetNeighbors() []peers.NeighborInfo {
	infos := []peers.NeighborInfo{}
	for uri := range f.neighbors {
		infos = append(infos, peers.NeighborInfo{URI: uri})
	}
	return infos
}

func (f *fakeNode) AddNeighbor(uri string) (bool, error) {
	if !strings.HasPrefix(uri, "udp://") {
		return false, errors.New("bad uri")
	}
	if f.neighbors[uri] {
		return false, nil
	}
	f.neighbors[uri] = true
	return true, nil
}

func (f *fakeNode) RemoveNeighbor(uri string) (bool, error) {
	if !f.neighbors[uri] {
		return false, nil
	}
	delete(f.neighbors, uri)
	return true, nil
}

func (f *fakeNode) SubmitTransaction(data []byte) (tangle.Hash, error) {
	tx, err := tangle.NewTransactionFromBytes(data, 0)
	if err != nil {
		return tangle.NullHash, err
	}
	f.submitted = append(f.submitted, data)
	return tx.Hash, nil
}

type fakeSelector struct {
	trunk, branch tangle.Hash
	err           error
	depth         int
}

func (f *fakeSelector) TransactionsToApprove(depth int) (tangle.Hash, tangle.Hash, error) {
	f.depth = depth
	return f.trunk, f.branch, f.err
}

func (f *fakeSelector) GetStats() map[string]string {
	return map[string]string{"tip_selections": "1"}
}

func newTestService(t *testing.T) (*Service, *fakeNode, *fakeSelector) {
	n := newFakeNode()
	sel := &fakeSelector{
		trunk:  tangle.TestHash("trunk"),
		branch: tangle.TestHash("branch"),
	}
	s := NewService("127.0.0.1:0", n, sel, 3, common.NewTestEntry(t, common.TestLogLevel))
	return s, n, sel
}

func do(s *Service, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGetStats(t *testing.T) {
	s, _, _ := newTestService(t)

	rec := do(s, "GET", "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status should be 200, not %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("CORS header should be set")
	}

	var stats map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats["transactions"] != "3" || stats["tip_selections"] != "1" {
		t.Fatalf("Stats should merge node and selector stats, not %v", stats)
	}
}

func TestNeighbors(t *testing.T) {
	s, n, _ := newTestService(t)

	t.Run("Add", func(t *testing.T) {
		rec := do(s, "POST", "/neighbors", NeighborsRequest{
			URIs: []string{"udp://10.0.0.1:14600", "udp://10.0.0.2:14600", "udp://10.0.0.1:14600"},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("Status should be 200, not %d", rec.Code)
		}
		var res NeighborsResponse
		json.NewDecoder(rec.Body).Decode(&res)
		if res.Changed != 2 {
			t.Fatalf("Changed should be 2, not %d", res.Changed)
		}
		if len(n.neighbors) != 2 {
			t.Fatalf("Node should have 2 neighbors, not %d", len(n.neighbors))
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		rec := do(s, "POST", "/neighbors", NeighborsRequest{URIs: []string{"tcp://10.0.0.3:1"}})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Status should be 400, not %d", rec.Code)
		}
	})

	t.Run("List", func(t *testing.T) {
		rec := do(s, "GET", "/neighbors", nil)
		var infos []peers.NeighborInfo
		json.NewDecoder(rec.Body).Decode(&infos)
		if len(infos) != 2 {
			t.Fatalf("There should be 2 neighbors, not %d", len(infos))
		}
	})

	t.Run("Remove", func(t *testing.T) {
		rec := do(s, "DELETE", "/neighbors", NeighborsRequest{URIs: []string{"udp://10.0.0.1:14600"}})
		var res NeighborsResponse
		json.NewDecoder(rec.Body).Decode(&res)
		if res.Changed != 1 {
			t.Fatalf("Changed should be 1, not %d", res.Changed)
		}
		if len(n.neighbors) != 1 {
			t.Fatalf("Node should have 1 neighbor, not %d", len(n.neighbors))
		}
	})
}

func TestGetTips(t *testing.T) {
	s, _, sel := newTestService(t)

	rec := do(s, "GET", "/tips", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Status should be 200, not %d", rec.Code)
	}
	if sel.depth != 3 {
		t.Fatalf("Depth should default to 3, not %d", sel.depth)
	}

	var res TipsResponse
	json.NewDecoder(rec.Body).Decode(&res)
	if res.Trunk != sel.trunk.Hex() || res.Branch != sel.branch.Hex() {
		t.Fatalf("Tips should be %s/%s, not %s/%s", sel.trunk.Hex(), sel.branch.Hex(), res.Trunk, res.Branch)
	}

	do(s, "GET", "/tips?depth=9", nil)
	if sel.depth != 9 {
		t.Fatalf("Depth should be 9, not %d", sel.depth)
	}

	rec = do(s, "GET", "/tips?depth=x", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Status should be 400, not %d", rec.Code)
	}

	sel.err = errors.New("no tip")
	rec = do(s, "GET", "/tips", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Status should be 503, not %d", rec.Code)
	}
}

func TestPostTransactions(t *testing.T) {
	s, n, _ := newTestService(t)

	tx := tangle.NewTransaction(tangle.TestHash("addr"), 0, 1, 0, 0,
		tangle.TestHash("bundle"), tangle.NullHash, tangle.NullHash)

	rec := do(s, "POST", "/transactions", TransactionsRequest{
		Transactions: []string{
			hex.EncodeToString(tx.Bytes()),
			common.EncodeToString(tx.Bytes()),
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Status should be 200, not %d: %s", rec.Code, rec.Body.String())
	}

	var res TransactionsResponse
	json.NewDecoder(rec.Body).Decode(&res)
	if len(res.Hashes) != 2 || res.Hashes[0] != tx.Hash.Hex() {
		t.Fatalf("Hashes should be [%s %s], not %v", tx.Hash.Hex(), tx.Hash.Hex(), res.Hashes)
	}
	if len(n.submitted) != 2 {
		t.Fatalf("Node should have received 2 transactions, not %d", len(n.submitted))
	}

	rec = do(s, "POST", "/transactions", TransactionsRequest{Transactions: []string{"00ff"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Short transaction should give 400, not %d", rec.Code)
	}

	rec = do(s, "POST", "/transactions", TransactionsRequest{Transactions: []string{"zz"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Invalid hex should give 400, not %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _, _ := newTestService(t)

	rec := do(s, "PUT", "/stats", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Status should be 405, not %d", rec.Code)
	}
}
