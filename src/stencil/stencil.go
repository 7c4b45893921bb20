package stencil

import (
	"fmt"
	"sync"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/crypto"
	"github.com/sirupsen/logrus"
)

// softwareTag is the string a node hashes, together with its declared version,
// to derive its software hash.
const softwareTag = "ValoriumX Node Software"

// SoftwareHash derives the software hash for a version string. Both the
// Stencil (when registering an official build) and nodes (when declaring what
// they run) use this derivation, so a node running the registered build
// matches the registry entry.
func SoftwareHash(version string) string {
	return common.EncodeToString(crypto.SHA256([]byte(fmt.Sprintf("%s %s", softwareTag, version))))
}

// Stencil is the official registry of compliant software hashes. A version
// that was never registered is non-compliant by definition: the registry
// fails closed.
type Stencil struct {
	sync.RWMutex

	versions map[string]string // version string => official hash
	logger   *logrus.Entry
}

// NewStencil ...
func NewStencil(logger *logrus.Entry) *Stencil {
	return &Stencil{
		versions: make(map[string]string),
		logger:   logger,
	}
}

// Register records the official hash for a software version. Registering the
// same version again overwrites the previous entry.
func (s *Stencil) Register(version, officialHash string) {
	s.Lock()
	defer s.Unlock()

	s.versions[version] = officialHash

	s.logger.WithFields(logrus.Fields{
		"version": version,
		"hash":    officialHash,
	}).Info("Stencil: official software version registered")
}

// IsCompliant returns true iff the registry has an entry for the declared
// version AND that entry equals the node's own software hash.
func (s *Stencil) IsCompliant(version, softwareHash string) bool {
	s.RLock()
	defer s.RUnlock()

	officialHash, ok := s.versions[version]
	if ok && officialHash == softwareHash {
		return true
	}

	s.logger.WithFields(logrus.Fields{
		"version":    version,
		"registered": ok,
	}).Warn("Stencil: compliance check failed")

	return false
}

// Versions returns a copy of the registered version map.
func (s *Stencil) Versions() map[string]string {
	s.RLock()
	defer s.RUnlock()

	res := make(map[string]string, len(s.versions))
	for v, h := range s.versions {
		res[v] = h
	}
	return res
}
