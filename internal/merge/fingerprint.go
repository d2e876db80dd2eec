package merge

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint computes a stable digest of a record, used to detect exact
// duplicates among unkeyed records. encoding/json emits map keys in sorted
// order, so the serialization is canonical for the decoded JSON shapes the
// engine operates on.
func Fingerprint(record any) string {
	payload, err := json.Marshal(record)
	if err != nil {
		payload = []byte(fmt.Sprint(record))
	}
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
