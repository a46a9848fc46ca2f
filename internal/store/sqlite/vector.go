// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaden/nomarr-sub002/internal/store"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.VectorStore = (*VectorStore)(nil)

// backboneNamePattern constrains backbone identifiers because they become
// part of collection table names.
var backboneNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// VectorStore implements store.VectorStore backed by SQLite with sqlite-vec.
//
// Each backbone owns two plain tables (hot_<backbone>, cold_<backbone>)
// sharing one record schema, created lazily on first write. The similarity
// index is a separate vec0 virtual table over the cold rows, created and
// dropped only by the index lifecycle operations; its presence is tracked in
// the vector_indexes metadata table.
type VectorStore struct {
	db *sql.DB
}

// NewVectorStore opens (or creates) the vector database at dbPath and runs
// the base migration (backbone registry and index metadata tables).
func NewVectorStore(dbPath string) (*VectorStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, nomerr.Wrapf(err, nomerr.CodeStoreDatabaseFailure, "opening vector db %s", dbPath)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nomerr.Wrapf(err, nomerr.CodeStoreDatabaseFailure, "pinging vector db %s", dbPath)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &VectorStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS backbones (
	name       TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS vector_indexes (
	backbone   TEXT PRIMARY KEY,
	embed_dim  INTEGER NOT NULL,
	nlists     INTEGER NOT NULL,
	metric     TEXT NOT NULL,
	created_at INTEGER NOT NULL
)`
	if _, err := db.Exec(ddl); err != nil {
		return nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "migrating vector db")
	}
	return nil
}

// hotTable / coldTable / annTable derive collection table names. Backbone
// names are validated before these are interpolated into SQL.
func hotTable(backbone string) string  { return "hot_" + backbone }
func coldTable(backbone string) string { return "cold_" + backbone }
func annTable(backbone string) string  { return "cold_" + backbone + "_ann" }

func validBackbone(backbone string) error {
	if !backboneNamePattern.MatchString(backbone) {
		return nomerr.Errorf(nomerr.CodeStoreInvalidInput, "invalid backbone identifier: %q", backbone)
	}
	return nil
}

const recordColumns = "key, file_id, model_suite_hash, embed_dim, embedding, num_segments, created_at"

// collectionDDL returns the shared record schema for a hot or cold table.
// The file_id secondary index serves point lookup and cascading delete; it
// is a plain b-tree, not the similarity index.
func collectionDDL(table string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	key              TEXT PRIMARY KEY,
	file_id          TEXT NOT NULL,
	model_suite_hash TEXT NOT NULL,
	embed_dim        INTEGER NOT NULL,
	embedding        BLOB NOT NULL,
	num_segments     INTEGER NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_file_id ON %[1]s(file_id)`, table)
}

func (v *VectorStore) tableExists(ctx context.Context, table string) (bool, error) {
	var n int
	err := v.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table).Scan(&n)
	if err != nil {
		return false, nomerr.Wrapf(err, nomerr.CodeStoreDatabaseFailure, "checking table %s", table)
	}
	return n > 0, nil
}

// ensureCollection creates a hot or cold table if absent.
func (v *VectorStore) ensureCollection(ctx context.Context, table string) error {
	if _, err := v.db.ExecContext(ctx, collectionDDL(table)); err != nil {
		return nomerr.Wrapf(err, nomerr.CodeStoreDatabaseFailure, "creating collection %s", table)
	}
	return nil
}

// registerBackbone records the backbone as known. Idempotent.
func (v *VectorStore) registerBackbone(ctx context.Context, backbone string) error {
	_, err := v.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO backbones(name, created_at) VALUES (?, ?)`,
		backbone, time.Now().UnixMilli())
	if err != nil {
		return nomerr.Wrapf(err, nomerr.CodeStoreDatabaseFailure, "registering backbone %s", backbone)
	}
	return nil
}

// UpsertHot inserts or replaces the hot record keyed by the content key of
// (FileID, ModelSuiteHash). Lazily registers the backbone and creates the
// hot collection.
func (v *VectorStore) UpsertHot(ctx context.Context, backbone string, vec *store.TrackVector) error {
	if err := validBackbone(backbone); err != nil {
		return err
	}
	if vec == nil || vec.FileID == "" || vec.ModelSuiteHash == "" {
		return nomerr.New(nomerr.CodeStoreInvalidInput, "file_id and model_suite_hash are required")
	}
	if vec.EmbedDim <= 0 || len(vec.Vector) != vec.EmbedDim {
		return nomerr.Errorf(nomerr.CodeVectorDimensionInvalid,
			"vector length %d does not match declared embed_dim %d", len(vec.Vector), vec.EmbedDim)
	}

	blob, err := sqlite_vec.SerializeFloat32(vec.Vector)
	if err != nil {
		return nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "serializing embedding",
			nomerr.FieldFileID(vec.FileID))
	}

	if err := v.registerBackbone(ctx, backbone); err != nil {
		return err
	}
	if err := v.ensureCollection(ctx, hotTable(backbone)); err != nil {
		return err
	}

	// The key is always derived here; a caller-supplied Key is ignored so a
	// stale or mismatched value cannot break one-record-per-pair convergence.
	key := store.VectorKey(vec.FileID, vec.ModelSuiteHash)
	createdAt := vec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	q := fmt.Sprintf(`
INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	file_id          = excluded.file_id,
	model_suite_hash = excluded.model_suite_hash,
	embed_dim        = excluded.embed_dim,
	embedding        = excluded.embedding,
	num_segments     = excluded.num_segments,
	created_at       = excluded.created_at`, hotTable(backbone), recordColumns)

	_, err = v.db.ExecContext(ctx, q,
		key, vec.FileID, vec.ModelSuiteHash, vec.EmbedDim, blob, vec.NumSegments, createdAt.UnixMilli())
	if err != nil {
		return nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "upserting hot vector",
			nomerr.FieldBackbone(backbone), nomerr.FieldFileID(vec.FileID))
	}
	return nil
}

// GetHot returns the hot record for a file, or nil when absent. The latest
// created_at wins if duplicates exist transiently.
func (v *VectorStore) GetHot(ctx context.Context, backbone, fileID string) (*store.TrackVector, error) {
	return v.getByFileID(ctx, backbone, hotTable(backbone), fileID)
}

// GetCold is GetHot against the cold collection.
func (v *VectorStore) GetCold(ctx context.Context, backbone, fileID string) (*store.TrackVector, error) {
	return v.getByFileID(ctx, backbone, coldTable(backbone), fileID)
}

func (v *VectorStore) getByFileID(ctx context.Context, backbone, table, fileID string) (*store.TrackVector, error) {
	if err := validBackbone(backbone); err != nil {
		return nil, err
	}
	exists, err := v.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	q := fmt.Sprintf(`SELECT %s FROM %s WHERE file_id = ? ORDER BY created_at DESC LIMIT 1`,
		recordColumns, table)

	rec, err := scanRecord(v.db.QueryRowContext(ctx, q, fileID))
	if err != nil {
		return nil, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "reading vector",
			nomerr.FieldBackbone(backbone), nomerr.FieldFileID(fileID))
	}
	return rec, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one TrackVector from a row of recordColumns. Returns
// (nil, nil) on sql.ErrNoRows.
func scanRecord(row rowScanner) (*store.TrackVector, error) {
	var (
		rec       store.TrackVector
		blob      []byte
		createdAt int64
	)
	err := row.Scan(&rec.Key, &rec.FileID, &rec.ModelSuiteHash, &rec.EmbedDim, &blob, &rec.NumSegments, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Vector, err = deserializeFloat32(blob)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMilli(createdAt)
	return &rec, nil
}

// CountHot returns the hot collection size; 0 when it does not exist yet.
func (v *VectorStore) CountHot(ctx context.Context, backbone string) (int64, error) {
	return v.countTable(ctx, backbone, hotTable(backbone))
}

// CountCold returns the cold collection size; 0 when it does not exist yet.
func (v *VectorStore) CountCold(ctx context.Context, backbone string) (int64, error) {
	return v.countTable(ctx, backbone, coldTable(backbone))
}

func (v *VectorStore) countTable(ctx context.Context, backbone, table string) (int64, error) {
	if err := validBackbone(backbone); err != nil {
		return 0, err
	}
	exists, err := v.tableExists(ctx, table)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var n int64
	if err := v.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n); err != nil {
		return 0, nomerr.Wrapf(err, nomerr.CodeStoreDatabaseFailure, "counting %s", table)
	}
	return n, nil
}

// DeleteHotByFileID removes all hot records for a file, returning the count
// removed. 0 (not an error) when the file or collection does not exist.
func (v *VectorStore) DeleteHotByFileID(ctx context.Context, backbone, fileID string) (int64, error) {
	if err := validBackbone(backbone); err != nil {
		return 0, err
	}
	exists, err := v.tableExists(ctx, hotTable(backbone))
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	res, err := v.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE file_id = ?`, hotTable(backbone)), fileID)
	if err != nil {
		return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "deleting hot vectors",
			nomerr.FieldBackbone(backbone), nomerr.FieldFileID(fileID))
	}
	return res.RowsAffected()
}

// DeleteColdByFileID removes all cold records for a file. When a similarity
// index exists, the matching index rows are removed in the same transaction
// so the index never references deleted records.
func (v *VectorStore) DeleteColdByFileID(ctx context.Context, backbone, fileID string) (int64, error) {
	if err := validBackbone(backbone); err != nil {
		return 0, err
	}
	cold := coldTable(backbone)
	exists, err := v.tableExists(ctx, cold)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	annExists, err := v.tableExists(ctx, annTable(backbone))
	if err != nil {
		return 0, err
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "beginning cold delete")
	}
	defer func() { _ = tx.Rollback() }()

	if annExists {
		q := fmt.Sprintf(`DELETE FROM %s WHERE key IN (SELECT key FROM %s WHERE file_id = ?)`,
			annTable(backbone), cold)
		if _, err := tx.ExecContext(ctx, q, fileID); err != nil {
			return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "deleting indexed vectors",
				nomerr.FieldBackbone(backbone), nomerr.FieldFileID(fileID))
		}
	}

	res, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE file_id = ?`, cold), fileID)
	if err != nil {
		return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "deleting cold vectors",
			nomerr.FieldBackbone(backbone), nomerr.FieldFileID(fileID))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "counting cold delete")
	}

	if err := tx.Commit(); err != nil {
		return 0, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "committing cold delete")
	}
	return n, nil
}

// EnsureColdCollection idempotently creates the cold collection.
func (v *VectorStore) EnsureColdCollection(ctx context.Context, backbone string) error {
	if err := validBackbone(backbone); err != nil {
		return err
	}
	if err := v.registerBackbone(ctx, backbone); err != nil {
		return err
	}
	return v.ensureCollection(ctx, coldTable(backbone))
}

// Backbones lists every backbone that has ever received an upsert, sorted.
func (v *VectorStore) Backbones(ctx context.Context) ([]string, error) {
	rows, err := v.db.QueryContext(ctx, `SELECT name FROM backbones ORDER BY name`)
	if err != nil {
		return nil, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "listing backbones")
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "scanning backbone name")
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, nomerr.Wrap(err, nomerr.CodeStoreDatabaseFailure, "iterating backbones")
	}
	return out, nil
}

// Close closes the underlying database connection.
func (v *VectorStore) Close() error {
	return v.db.Close()
}
