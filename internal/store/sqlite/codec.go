// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package sqlite

import (
	"encoding/binary"
	"math"

	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// deserializeFloat32 decodes the little-endian float32 blob format shared by
// the record tables and the vec0 index (the inverse of
// sqlite_vec.SerializeFloat32).
func deserializeFloat32(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, nomerr.Errorf(nomerr.CodeStoreDatabaseFailure,
			"embedding blob length %d is not a multiple of 4", len(blob))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}
