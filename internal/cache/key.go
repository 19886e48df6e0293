// Package cache provides content-addressed storage for completed transforms.
//
// A key is a pure function of (prompt, mode, model), so identical requests
// resolve to the same record regardless of which instance served them. The
// Store interface is implemented by a process-local TTL map (memory), Redis
// (shared across instances), and a no-op store; the SQLite backend lives in
// internal/repo.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// keyMaterial is the canonical JSON form hashed into a key. Field order is
// fixed by the struct; an absent mode serializes as null, distinct from "".
type keyMaterial struct {
	Prompt string  `json:"prompt"`
	Mode   *string `json:"mode"`
	Model  string  `json:"model"`
}

// Key returns the lowercase hex SHA-256 digest of the canonical JSON
// {"prompt":…,"mode":…|null,"model":…}.
func Key(prompt string, mode *string, model string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings cannot fail.
	_ = enc.Encode(keyMaterial{Prompt: prompt, Mode: mode, Model: model})

	sum := sha256.Sum256(bytes.TrimRight(buf.Bytes(), "\n"))
	return hex.EncodeToString(sum[:])
}
