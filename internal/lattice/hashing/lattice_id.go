// Package hashing derives the lattice ID and codex hash for an entity.
//
// Both derivations are pure: identical inputs always produce identical
// outputs, across runs and processes. Salts are fixed constants shared by
// everyone who must reproduce an identifier; rotating one invalidates every
// identifier issued under it.
package hashing

import (
	"crypto/md5" //nolint:gosec // lattice IDs are identifiers, not security tokens
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"pebble/internal/lattice/models"
)

// LatticeSalt is the domain salt mixed into every lattice ID.
const LatticeSalt = "FROSTED_ROOTS"

// latticeIDPrefix and the 8-hex-char digest prefix fix the ID width; collision
// probability depends only on those 32 bits.
const (
	latticeIDPrefix  = "PBL"
	latticeHexLength = 8
)

// GenerateLatticeID derives the public lattice ID for (name, numericID) under
// LatticeSalt, e.g. PBL-6D5E4193-00001.
func GenerateLatticeID(name string, numericID int64) (string, error) {
	return GenerateLatticeIDWithSalt(name, numericID, LatticeSalt)
}

// GenerateLatticeIDWithSalt derives a lattice ID under an explicit salt.
// The numeric suffix is zero-padded to at least five digits and never truncated.
func GenerateLatticeIDWithSalt(name string, numericID int64, salt string) (string, error) {
	if err := (models.Entity{Name: name, NumericID: numericID}).Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(name) + len(salt) + 22)
	b.WriteString(name)
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(numericID, 10))
	b.WriteByte('_')
	b.WriteString(salt)

	sum := md5.Sum([]byte(b.String())) //nolint:gosec
	digest := strings.ToUpper(hex.EncodeToString(sum[:])[:latticeHexLength])

	return fmt.Sprintf("%s-%s-%05d", latticeIDPrefix, digest, numericID), nil
}
