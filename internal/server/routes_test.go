// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaden/nomarr-sub002/internal/server"
	"github.com/xiaden/nomarr-sub002/internal/store"
	"github.com/xiaden/nomarr-sub002/internal/store/sqlite"
	"github.com/xiaden/nomarr-sub002/internal/vector"
)

type fixedResolver struct{ dim int }

func (r fixedResolver) Resolve(_ string) (int, error) { return r.dim, nil }

// newTestServer wires a full server over a temp sqlite store.
func newTestServer(t *testing.T, dim int) (*httptest.Server, store.VectorStore) {
	t.Helper()

	vs, err := sqlite.NewVectorStore(filepath.Join(t.TempDir(), "vectors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = vs.Close() })

	engine := vector.NewPromotionEngine(vs, fixedResolver{dim: dim}, nil)
	maint := vector.NewMaintenanceService(vs, engine, nil)
	search := vector.NewSearchService(vs)

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"}, vs, maint, search)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, vs
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, 3)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
}

func TestIngestPromoteSearchFlow(t *testing.T) {
	ts, _ := newTestServer(t, 3)

	ingest := func(fileID string, v []float32) {
		resp := postJSON(t, ts.URL+"/api/v1/backbones/effnet/vectors", map[string]any{
			"file_id":          fileID,
			"model_suite_hash": "suite-a",
			"embed_dim":        len(v),
			"vector":           v,
			"num_segments":     1,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out struct {
			Key string `json:"key"`
		}
		decodeJSON(t, resp, &out)
		assert.Equal(t, store.VectorKey(fileID, "suite-a"), out.Key)
	}

	ingest("track-a", []float32{0.1, 0.9, 0.2})
	ingest("track-b", []float32{0.9, 0.1, 0.1})

	// Stats before promotion: everything hot, nothing searchable.
	resp, err := http.Get(ts.URL + "/api/v1/backbones/effnet/stats")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats store.HotColdStats
	decodeJSON(t, resp, &stats)
	assert.Equal(t, int64(2), stats.HotCount)
	assert.Zero(t, stats.ColdCount)
	assert.False(t, stats.IndexExists)

	// Search before promotion fails with 503, not an empty result.
	resp = postJSON(t, ts.URL+"/api/v1/backbones/effnet/search", map[string]any{
		"vector": []float32{0.1, 0.8, 0.2},
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// Promote.
	resp = postJSON(t, ts.URL+"/api/v1/backbones/effnet/promote", map[string]any{"nlists": 48})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var promoted struct {
		Stats store.HotColdStats `json:"stats"`
	}
	decodeJSON(t, resp, &promoted)
	assert.Zero(t, promoted.Stats.HotCount)
	assert.Equal(t, int64(2), promoted.Stats.ColdCount)
	assert.True(t, promoted.Stats.IndexExists)

	// Search now ranks track-a first for a query near it.
	resp = postJSON(t, ts.URL+"/api/v1/backbones/effnet/search", map[string]any{
		"vector": []float32{0.1, 0.8, 0.2},
		"limit":  10,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Hits []struct {
			FileID string  `json:"file_id"`
			Score  float64 `json:"score"`
		} `json:"hits"`
	}
	decodeJSON(t, resp, &result)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "track-a", result.Hits[0].FileID)
	assert.Greater(t, result.Hits[0].Score, result.Hits[1].Score)
}

func TestSearchMinScoreFilter(t *testing.T) {
	ts, _ := newTestServer(t, 2)

	for id, v := range map[string][]float32{
		"near": {1, 0},
		"far":  {0, 1},
	} {
		resp := postJSON(t, ts.URL+"/api/v1/backbones/effnet/vectors", map[string]any{
			"file_id":          id,
			"model_suite_hash": "s",
			"embed_dim":        2,
			"vector":           v,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := postJSON(t, ts.URL+"/api/v1/backbones/effnet/promote", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/backbones/effnet/search", map[string]any{
		"vector":    []float32{1, 0},
		"min_score": 0.9,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Hits []struct {
			FileID string `json:"file_id"`
		} `json:"hits"`
	}
	decodeJSON(t, resp, &result)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "near", result.Hits[0].FileID)
}

func TestIngestRejectsDimMismatch(t *testing.T) {
	ts, _ := newTestServer(t, 3)

	resp := postJSON(t, ts.URL+"/api/v1/backbones/effnet/vectors", map[string]any{
		"file_id":          "f1",
		"model_suite_hash": "s",
		"embed_dim":        4,
		"vector":           []float32{1, 2},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTrackVector(t *testing.T) {
	ts, _ := newTestServer(t, 2)

	resp := postJSON(t, ts.URL+"/api/v1/backbones/effnet/vectors", map[string]any{
		"file_id":          "f1",
		"model_suite_hash": "s",
		"embed_dim":        2,
		"vector":           []float32{0.5, 0.5},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Hot fallback: the record has not been promoted yet.
	resp, err := http.Get(ts.URL + "/api/v1/backbones/effnet/track-vector?file_id=f1")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		FileID   string    `json:"file_id"`
		EmbedDim int       `json:"embed_dim"`
		Vector   []float32 `json:"vector"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "f1", body.FileID)
	assert.Equal(t, 2, body.EmbedDim)
	assert.Equal(t, []float32{0.5, 0.5}, body.Vector)

	resp, err = http.Get(ts.URL + "/api/v1/backbones/effnet/track-vector?file_id=absent")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteFileVectors(t *testing.T) {
	ts, _ := newTestServer(t, 2)

	for _, backbone := range []string{"effnet", "musicnn"} {
		resp := postJSON(t, fmt.Sprintf("%s/api/v1/backbones/%s/vectors", ts.URL, backbone), map[string]any{
			"file_id":          "f1",
			"model_suite_hash": "s",
			"embed_dim":        2,
			"vector":           []float32{1, 0},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/vectors?file_id=f1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Deleted int64 `json:"deleted"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, int64(2), body.Deleted)

	// Deleting again finds nothing, still 200.
	resp, err = http.DefaultClient.Do(req.Clone(req.Context()))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &body)
	assert.Zero(t, body.Deleted)
}
