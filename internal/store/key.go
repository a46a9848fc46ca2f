// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// VectorKey derives the deterministic record key for a (file, model-suite)
// pair. The NUL separator keeps ("a", "bc") and ("ab", "c") distinct.
func VectorKey(fileID, modelSuiteHash string) string {
	h := sha256.New()
	h.Write([]byte(fileID))
	h.Write([]byte{0})
	h.Write([]byte(modelSuiteHash))
	return hex.EncodeToString(h.Sum(nil))
}
