package dedup

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
)

// Normalize canonicalizes raw content for fingerprinting: strings are
// trimmed, structured values serialized to a stable JSON form, anything else
// stringified.
func Normalize(content interface{}) string {
	switch v := content.(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Fingerprint is the deterministic content-addressed digest used for
// duplicate detection and as a stable external reference.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum)
}
