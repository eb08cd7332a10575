package deck

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainDeck is the domain prefix for deck content hashes.
// Version suffix enables future algorithm migration.
const DomainDeck = "cellcad/deck/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash computes the content-addressed identity of a deck.
//
// Struct fields marshal in declaration order and maps with sorted keys, so
// the same deck always produces the same hash.
func Hash(d *Deck) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("deck hash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDeck, data), nil
}
