package peers

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ugorji/go/codec"
)

const jsonNeighborsPath = "neighbors.json"

// JSONNeighbors is used to provide neighbor persistence on disk in the form
// of a JSON list of URIs. This allows human operators to manipulate the file.
type JSONNeighbors struct {
	l    sync.Mutex
	path string
}

// NewJSONNeighbors creates a new JSONNeighbors store in the base directory.
func NewJSONNeighbors(base string) *JSONNeighbors {
	return &JSONNeighbors{
		path: filepath.Join(base, jsonNeighborsPath),
	}
}

// URIs reads the neighbor URIs. A missing or empty file yields no URI.
func (j *JSONNeighbors) URIs() ([]string, error) {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(buf) == 0 {
		return nil, nil
	}

	var uris []string
	dec := codec.NewDecoderBytes(buf, &codec.JsonHandle{})
	if err := dec.Decode(&uris); err != nil {
		return nil, err
	}

	return uris, nil
}

// SetURIs writes the neighbor URIs.
func (j *JSONNeighbors) SetURIs(uris []string) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf []byte
	enc := codec.NewEncoderBytes(&buf, &codec.JsonHandle{Indent: 2})
	if err := enc.Encode(uris); err != nil {
		return err
	}

	return os.WriteFile(j.path, buf, 0644)
}
