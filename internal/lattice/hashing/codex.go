package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"pebble/internal/lattice/models"
	dErrors "pebble/pkg/domain-errors"
)

// CodexSalt is the domain salt prefixed to every codex hash input.
const CodexSalt = "NEXUS_NAIR_FROSTED_ROOTS"

// DefaultInterval is the legacy nine-second pulse constant. It is an epoch
// salt, not a timer: every entity in a run is hashed with the same value.
const DefaultInterval = 9

// Algorithm names a codex digest. Both produce 64 lowercase hex characters.
type Algorithm string

const (
	AlgorithmSHA256     Algorithm = "sha256"
	AlgorithmBLAKE2b256 Algorithm = "blake2b-256"
)

// ParseAlgorithm maps a configured name to an Algorithm. Empty selects SHA-256.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "", AlgorithmSHA256:
		return AlgorithmSHA256, nil
	case AlgorithmBLAKE2b256:
		return AlgorithmBLAKE2b256, nil
	}
	return "", dErrors.Newf(dErrors.CodeConfiguration, "unsupported codex algorithm %q", s)
}

// Hasher computes codex hashes under a fixed salt, interval and algorithm.
// It holds no mutable state and is safe for concurrent use.
type Hasher struct {
	salt      string
	interval  int
	algorithm Algorithm
}

// NewHasher validates the configuration up front; a bad salt or interval
// would silently produce hashes no other party can reproduce.
func NewHasher(salt string, interval int, algorithm Algorithm) (*Hasher, error) {
	if salt == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "codex salt is required")
	}
	if interval <= 0 {
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "interval parameter must be positive, got %d", interval)
	}
	algorithm, err := ParseAlgorithm(string(algorithm))
	if err != nil {
		return nil, err
	}
	return &Hasher{salt: salt, interval: interval, algorithm: algorithm}, nil
}

// NewDefaultHasher returns the SHA-256 hasher with the legacy salt and interval.
func NewDefaultHasher() *Hasher {
	return &Hasher{salt: CodexSalt, interval: DefaultInterval, algorithm: AlgorithmSHA256}
}

// Interval returns the interval parameter mixed into every hash.
func (h *Hasher) Interval() int {
	return h.interval
}

// Algorithm returns the configured digest.
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// CodexHash digests salt + name + "_" + numericID + interval and returns the
// lowercase hex encoding.
func (h *Hasher) CodexHash(name string, numericID int64) (string, error) {
	if err := (models.Entity{Name: name, NumericID: numericID}).Validate(); err != nil {
		return "", err
	}

	d := h.newDigest()
	d.Write([]byte(h.salt))
	d.Write([]byte(name))
	d.Write([]byte{'_'})
	d.Write([]byte(strconv.FormatInt(numericID, 10)))
	d.Write([]byte(strconv.Itoa(h.interval)))

	return hex.EncodeToString(d.Sum(nil)), nil
}

func (h *Hasher) newDigest() hash.Hash {
	if h.algorithm == AlgorithmBLAKE2b256 {
		// New256 only fails for keys longer than 64 bytes.
		d, _ := blake2b.New256(nil)
		return d
	}
	return sha256.New()
}
