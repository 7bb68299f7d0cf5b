package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/DataDaddy212/doney-mirror/internal/tree"
)

// DomainSnapshot separates snapshot digests from any other hash of the same
// bytes. The version suffix leaves room for changing the canonical form.
const DomainSnapshot = "doney/snapshot/v1"

// Digest returns the hex SHA-256 of the canonical form of nodes, computed as
// SHA256(DomainSnapshot + 0x00 + Canonical(nodes)).
func Digest(nodes []tree.Node) (string, error) {
	canonical, err := Canonical(nodes)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// MustDigest is like Digest but panics on error.
func MustDigest(nodes []tree.Node) string {
	d, err := Digest(nodes)
	if err != nil {
		panic(err)
	}
	return d
}

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
