package oracles

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/Domenick1991/flightsurety/internal/domain"
)

// deriveIndex maps a ledger nonce and a caller address onto the oracle index
// range. Deterministic given its inputs; anyone who can read the ledger
// state can predict it.
func deriveIndex(nonce uint64, address string, salt int) uint8 {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%d", nonce, address, salt)))
	return uint8(binary.BigEndian.Uint64(sum[:8]) % domain.OracleIndexRange)
}

// deriveIndexes assigns the three distinct indexes an oracle keeps for its
// lifetime.
func deriveIndexes(nonce uint64, address string) [3]uint8 {
	var indexes [3]uint8
	salt := 0
	for i := 0; i < 3; {
		candidate := deriveIndex(nonce, address, salt)
		salt++
		if i > 0 && (candidate == indexes[0] || (i > 1 && candidate == indexes[1])) {
			continue
		}
		indexes[i] = candidate
		i++
	}
	return indexes
}
