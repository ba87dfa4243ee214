package service

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/tangle/src/common"
	"github.com/mosaicnetworks/tangle/src/peers"
	"github.com/mosaicnetworks/tangle/src/tangle"
)

// Node is the part of the node exposed by the API.
type Node interface {
	GetStats() map[string]string
	GetNeighbors() []peers.NeighborInfo
	AddNeighbor(uri string) (bool, error)
	RemoveNeighbor(uri string) (bool, error)
	SubmitTransaction(data []byte) (tangle.Hash, error)
}

// TipSelector is the part of the tip selection engine exposed by the API.
type TipSelector interface {
	TransactionsToApprove(depth int) (tangle.Hash, tangle.Hash, error)
	GetStats() map[string]string
}

// NeighborsRequest is the body of POST and DELETE /neighbors.
type NeighborsRequest struct {
	URIs []string `json:"uris"`
}

// NeighborsResponse reports how many neighbors were added or removed.
type NeighborsResponse struct {
	Changed int `json:"changed"`
}

// TipsResponse is the body returned by GET /tips.
type TipsResponse struct {
	Trunk    string `json:"trunk"`
	Branch   string `json:"branch"`
	Duration int64  `json:"duration"`
}

// TransactionsRequest is the body of POST /transactions. Each element is the
// hex wire encoding of a transaction.
type TransactionsRequest struct {
	Transactions []string `json:"transactions"`
}

// TransactionsResponse lists the hashes of the submitted transactions.
type TransactionsResponse struct {
	Hashes []string `json:"hashes"`
}

// Service exposes the node and the tip selection over HTTP.
type Service struct {
	bindAddress  string
	node         Node
	selector     TipSelector
	defaultDepth int
	router       *mux.Router
	logger       *logrus.Entry
}

// NewService creates a Service. defaultDepth is used by GET /tips when the
// request carries no depth.
func NewService(bindAddress string,
	n Node,
	selector TipSelector,
	defaultDepth int,
	logger *logrus.Entry) *Service {

	service := Service{
		bindAddress:  bindAddress,
		node:         n,
		selector:     selector,
		defaultDepth: defaultDepth,
		router:       mux.NewRouter(),
		logger:       logger,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering API handlers")
	s.router.HandleFunc("/stats", s.makeHandler(s.GetStats)).Methods("GET")
	s.router.HandleFunc("/neighbors", s.makeHandler(s.GetNeighbors)).Methods("GET")
	s.router.HandleFunc("/neighbors", s.makeHandler(s.AddNeighbors)).Methods("POST")
	s.router.HandleFunc("/neighbors", s.makeHandler(s.RemoveNeighbors)).Methods("DELETE")
	s.router.HandleFunc("/tips", s.makeHandler(s.GetTips)).Methods("GET")
	s.router.HandleFunc("/transactions", s.makeHandler(s.PostTransactions)).Methods("POST")
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the router serving the API.
func (s *Service) Handler() http.Handler {
	return s.router
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving API")

	err := http.ListenAndServe(s.bindAddress, s.router)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats merges the node and tip selection stats.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()
	for k, v := range s.selector.GetStats() {
		stats[k] = v
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetNeighbors lists the neighbors with their counters.
func (s *Service) GetNeighbors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.node.GetNeighbors())
}

// AddNeighbors adds every URI of the request.
func (s *Service) AddNeighbors(w http.ResponseWriter, r *http.Request) {
	s.changeNeighbors(w, r, s.node.AddNeighbor)
}

// RemoveNeighbors removes every URI of the request.
func (s *Service) RemoveNeighbors(w http.ResponseWriter, r *http.Request) {
	s.changeNeighbors(w, r, s.node.RemoveNeighbor)
}

func (s *Service) changeNeighbors(w http.ResponseWriter, r *http.Request, change func(string) (bool, error)) {
	var req NeighborsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WithError(err).Debug("Decoding neighbors request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	changed := 0
	for _, uri := range req.URIs {
		ok, err := change(uri)
		if err != nil {
			s.logger.WithError(err).WithField("uri", uri).Debug("Changing neighbors")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if ok {
			changed++
		}
	}

	writeJSON(w, http.StatusOK, NeighborsResponse{Changed: changed})
}

// GetTips returns a trunk and a branch for a new transaction. The optional
// depth query parameter defaults to the configured depth.
func (s *Service) GetTips(w http.ResponseWriter, r *http.Request) {
	depth := s.defaultDepth

	if param := r.URL.Query().Get("depth"); param != "" {
		d, err := strconv.Atoi(param)
		if err != nil || d < 0 {
			s.logger.WithField("depth", param).Debug("Parsing depth parameter")
			http.Error(w, "invalid depth "+param, http.StatusBadRequest)
			return
		}
		depth = d
	}

	start := time.Now()

	trunk, branch, err := s.selector.TransactionsToApprove(depth)
	if err != nil {
		s.logger.WithError(err).Error("Selecting tips")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, TipsResponse{
		Trunk:    trunk.Hex(),
		Branch:   branch.Hex(),
		Duration: time.Since(start).Milliseconds(),
	})
}

// PostTransactions submits encoded transactions. It stops at the first
// transaction that is rejected.
func (s *Service) PostTransactions(w http.ResponseWriter, r *http.Request) {
	var req TransactionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WithError(err).Debug("Decoding transactions request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := TransactionsResponse{Hashes: []string{}}

	for _, encoded := range req.Transactions {
		data, err := decodeHex(encoded)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		h, err := s.node.SubmitTransaction(data)
		if err != nil {
			s.logger.WithError(err).Debug("Submitting transaction")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res.Hashes = append(res.Hashes, h.Hex())
	}

	writeJSON(w, http.StatusOK, res)
}

func decodeHex(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0X") || strings.HasPrefix(s, "0x") {
		return common.DecodeFromString(s)
	}
	return hex.DecodeString(s)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
