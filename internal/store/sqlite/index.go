// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/xiaden/nomarr-sub002/internal/store"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

// indexMetric is the similarity metric for all cold indexes. Scores are
// reported as 1 - cosine_distance so that higher means closer.
const indexMetric = "cosine"

// chunkSizeFor maps the nlists partitioning tunable onto the vec0 chunk
// size, which must be a positive multiple of 8.
func chunkSizeFor(nlists int) int {
	size := ((nlists + 7) / 8) * 8
	if size < 8 {
		size = 8
	}
	return size
}

// HasVectorIndex reports whether the cold collection carries a similarity
// index, from the index metadata table.
func (v *VectorStore) HasVectorIndex(ctx context.Context, backbone string) (bool, error) {
	if err := validBackbone(backbone); err != nil {
		return false, err
	}
	var n int
	err := v.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vector_indexes WHERE backbone = ?`, backbone).Scan(&n)
	if err != nil {
		return false, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "checking index metadata",
			nomerr.FieldBackbone(backbone))
	}
	return n > 0, nil
}

// DropVectorIndex removes the similarity index and its metadata. No-op when
// the cold collection or index does not exist.
func (v *VectorStore) DropVectorIndex(ctx context.Context, backbone string) error {
	if err := validBackbone(backbone); err != nil {
		return err
	}

	if _, err := v.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, annTable(backbone))); err != nil {
		return nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "dropping vector index",
			nomerr.FieldBackbone(backbone))
	}
	if _, err := v.db.ExecContext(ctx, `DELETE FROM vector_indexes WHERE backbone = ?`, backbone); err != nil {
		return nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "clearing index metadata",
			nomerr.FieldBackbone(backbone))
	}
	return nil
}

// BuildVectorIndex creates the vec0 similarity index over the cold
// collection and bulk-loads every cold row into it. The metadata row is
// written last, so a failed build leaves HasVectorIndex false and the next
// maintenance run re-attempts from the drop step.
func (v *VectorStore) BuildVectorIndex(ctx context.Context, backbone string, embedDim, nlists int) error {
	if err := validBackbone(backbone); err != nil {
		return err
	}
	if embedDim <= 0 {
		return nomerr.Errorf(nomerr.CodeVectorDimensionInvalid, "embed_dim must be positive, got %d", embedDim)
	}
	if nlists <= 0 {
		return nomerr.Errorf(nomerr.CodeStoreInvalidInput, "nlists must be positive, got %d", nlists)
	}
	if err := v.EnsureColdCollection(ctx, backbone); err != nil {
		return err
	}

	// A leftover index table from an interrupted build is replaced wholesale.
	if err := v.DropVectorIndex(ctx, backbone); err != nil {
		return err
	}

	ann := annTable(backbone)
	createQ := fmt.Sprintf(
		`CREATE VIRTUAL TABLE %s USING vec0(key TEXT PRIMARY KEY, embedding float[%d] distance_metric=%s, chunk_size=%d)`,
		ann, embedDim, indexMetric, chunkSizeFor(nlists))
	if _, err := v.db.ExecContext(ctx, createQ); err != nil {
		return nomerr.Wrap(err, nomerr.CodeVectorIndexCreateFailed, "creating vector index",
			nomerr.FieldBackbone(backbone), nomerr.Field("embed_dim", embedDim), nomerr.Field("nlists", nlists))
	}

	populateQ := fmt.Sprintf(`INSERT INTO %s (key, embedding) SELECT key, embedding FROM %s`,
		ann, coldTable(backbone))
	if _, err := v.db.ExecContext(ctx, populateQ); err != nil {
		// Leave no index table behind; HasVectorIndex stays false either way.
		_, _ = v.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, ann))
		return nomerr.Wrap(err, nomerr.CodeVectorIndexCreateFailed, "populating vector index",
			nomerr.FieldBackbone(backbone))
	}

	_, err := v.db.ExecContext(ctx,
		`INSERT INTO vector_indexes (backbone, embed_dim, nlists, metric, created_at) VALUES (?, ?, ?, ?, ?)`,
		backbone, embedDim, nlists, indexMetric, time.Now().UnixMilli())
	if err != nil {
		_, _ = v.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, ann))
		return nomerr.Wrap(err, nomerr.CodeVectorIndexCreateFailed, "recording index metadata",
			nomerr.FieldBackbone(backbone))
	}
	return nil
}

// SearchCold runs a k-nearest-neighbor query against the cold collection's
// similarity index, ranked by descending score. Hot records are never
// consulted.
func (v *VectorStore) SearchCold(ctx context.Context, backbone string, query []float32, limit int) ([]store.SearchHit, error) {
	if err := validBackbone(backbone); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nomerr.Errorf(nomerr.CodeStoreInvalidInput, "search limit must be positive, got %d", limit)
	}

	var indexDim int
	err := v.db.QueryRowContext(ctx,
		`SELECT embed_dim FROM vector_indexes WHERE backbone = ?`, backbone).Scan(&indexDim)
	if err == sql.ErrNoRows {
		return nil, nomerr.New(nomerr.CodeVectorIndexUnavailable,
			"no similarity index exists for backbone; run promotion first",
			nomerr.FieldBackbone(backbone))
	}
	if err != nil {
		return nil, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "checking index metadata",
			nomerr.FieldBackbone(backbone))
	}
	// Caught here so a malformed query surfaces as caller error instead of
	// a vec0 MATCH failure.
	if len(query) != indexDim {
		return nil, nomerr.Errorf(nomerr.CodeVectorDimensionInvalid,
			"query vector length %d does not match indexed embed_dim %d", len(query), indexDim)
	}

	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "serializing query vector")
	}

	q := fmt.Sprintf(`
SELECT c.key, c.file_id, c.model_suite_hash, c.embed_dim, c.embedding, c.num_segments, c.created_at, a.distance
FROM %s a
JOIN %s c ON c.key = a.key
WHERE a.embedding MATCH ? AND k = ?
ORDER BY a.distance`, annTable(backbone), coldTable(backbone))

	rows, err := v.db.QueryContext(ctx, q, blob, limit)
	if err != nil {
		return nil, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "searching cold vectors",
			nomerr.FieldBackbone(backbone))
	}
	defer func() { _ = rows.Close() }()

	var hits []store.SearchHit
	for rows.Next() {
		var (
			rec       store.TrackVector
			blob      []byte
			createdAt int64
			distance  float64
		)
		err := rows.Scan(&rec.Key, &rec.FileID, &rec.ModelSuiteHash, &rec.EmbedDim, &blob,
			&rec.NumSegments, &createdAt, &distance)
		if err != nil {
			return nil, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "scanning search result")
		}
		rec.Vector, err = deserializeFloat32(blob)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(createdAt)

		hits = append(hits, store.SearchHit{Vector: &rec, Score: 1 - distance})
	}
	if err := rows.Err(); err != nil {
		return nil, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "iterating search results")
	}
	return hits, nil
}
