// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package sqlite

import (
	"context"
	"fmt"

	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// DrainHotToCold moves every hot record into cold via upsert-by-key, then
// clears hot, all in one transaction. Returns the count drained; 0 when the
// hot collection is empty or absent.
//
// The upsert overwrites any cold record sharing a key, so re-running a drain
// that was populated by a crashed previous attempt converges on the same
// cold state instead of duplicating. Promotion drops the similarity index
// before calling this; the drain itself does not touch index rows.
func (v *VectorStore) DrainHotToCold(ctx context.Context, backbone string) (int64, error) {
	if err := validBackbone(backbone); err != nil {
		return 0, err
	}

	hot := hotTable(backbone)
	exists, err := v.tableExists(ctx, hot)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	if err := v.EnsureColdCollection(ctx, backbone); err != nil {
		return 0, err
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "beginning drain",
			nomerr.FieldBackbone(backbone))
	}
	defer func() { _ = tx.Rollback() }()

	var n int64
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, hot)).Scan(&n); err != nil {
		return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "counting hot before drain",
			nomerr.FieldBackbone(backbone))
	}
	if n == 0 {
		return 0, nil
	}

	moveQ := fmt.Sprintf(`
INSERT INTO %s (%s) SELECT %s FROM %s WHERE true
ON CONFLICT(key) DO UPDATE SET
	file_id          = excluded.file_id,
	model_suite_hash = excluded.model_suite_hash,
	embed_dim        = excluded.embed_dim,
	embedding        = excluded.embedding,
	num_segments     = excluded.num_segments,
	created_at       = excluded.created_at`,
		coldTable(backbone), recordColumns, recordColumns, hot)
	if _, err := tx.ExecContext(ctx, moveQ); err != nil {
		return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "moving hot records to cold",
			nomerr.FieldBackbone(backbone))
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, hot)); err != nil {
		return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "clearing hot collection",
			nomerr.FieldBackbone(backbone))
	}

	if err := tx.Commit(); err != nil {
		return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "committing drain",
			nomerr.FieldBackbone(backbone))
	}
	return n, nil
}
