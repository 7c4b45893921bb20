package node

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"
)

const jsonNodeSetPath = "nodes.json"

// Record is the on-disk form of a node. Private keys never appear here; each
// node keeps its key in its own keyfile.
type Record struct {
	Address         string
	SoftwareVersion string
	PubKeyHex       string
	CanPropose      bool
	CanAttest       bool
}

// JSONNodeSet provides node-set persistence on disk in the form of a JSON
// file.
type JSONNodeSet struct {
	l    sync.Mutex
	path string
}

// NewJSONNodeSet creates a JSONNodeSet with reference to the base directory
// where the JSON file resides.
func NewJSONNodeSet(base string) *JSONNodeSet {
	return &JSONNodeSet{
		path: filepath.Join(base, jsonNodeSetPath),
	}
}

// Read parses the underlying JSON file and returns the node records.
func (j *JSONNodeSet) Read() ([]*Record, error) {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := ioutil.ReadFile(j.path)
	if err != nil {
		return nil, err
	}

	if len(buf) == 0 {
		return nil, nil
	}

	var records []*Record
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}

	cleanseRecords(records)

	return records, nil
}

// cleanseRecords standardises the public key strings to the format derived
// from a private key.
func cleanseRecords(records []*Record) {
	for _, r := range records {
		if r.PubKeyHex == "" {
			continue
		}
		r.PubKeyHex = "0X" + strings.TrimPrefix(strings.ToUpper(r.PubKeyHex), "0X")
	}
}

// Write persists node records to the JSON file.
func (j *JSONNodeSet) Write(records []*Record) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "\t")
	if err := enc.Encode(records); err != nil {
		return err
	}

	return ioutil.WriteFile(j.path, buf.Bytes(), 0755)
}
