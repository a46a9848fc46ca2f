// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nomerr "github.com/xiaden/nomarr-sub002/pkg/errors"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := nomerr.New(
		nomerr.CodeVectorDrainIncomplete,
		"hot collection not empty after drain",
		nomerr.FieldBackbone("effnet"),
		nomerr.Field("remaining", 3),
	)

	require.Error(t, err)
	assert.Equal(t, nomerr.CodeVectorDrainIncomplete, nomerr.CodeOf(err))
	assert.True(t, nomerr.HasCode(err, nomerr.CodeVectorDrainIncomplete))

	fields := nomerr.FieldsOf(err)
	assert.Equal(t, "effnet", fields["backbone"])
	assert.Equal(t, 3, fields["remaining"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := nomerr.Errorf(nomerr.CodeStoreDatabaseFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, nomerr.CodeStoreDatabaseFailure, nomerr.CodeOf(err))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, nomerr.Wrap(nil, nomerr.CodeStoreDatabaseFailure, "ignored"))
	assert.NoError(t, nomerr.Wrapf(nil, nomerr.CodeStoreDatabaseFailure, "ignored %d", 1))
}

func TestWrapPreservesChain(t *testing.T) {
	inner := stderrors.New("constraint violated")
	err := nomerr.Wrap(inner, nomerr.CodeVectorIndexCreateFailed, "building vector index",
		nomerr.FieldBackbone("musicnn"))

	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, nomerr.CodeVectorIndexCreateFailed, nomerr.CodeOf(err))
	assert.Equal(t, "musicnn", nomerr.FieldsOf(err)["backbone"])
}

func TestCodeOfNonOopsError(t *testing.T) {
	assert.Equal(t, nomerr.Code(""), nomerr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, nomerr.Code(""), nomerr.CodeOf(nil))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"drain incomplete", nomerr.New(nomerr.CodeVectorDrainIncomplete, "x"), nomerr.IsDrainIncomplete, true},
		{"index unavailable", nomerr.New(nomerr.CodeVectorIndexUnavailable, "x"), nomerr.IsIndexUnavailable, true},
		{"embed dim undetermined", nomerr.New(nomerr.CodeModelsEmbedDimUndetermined, "x"), nomerr.IsEmbedDimUndetermined, true},
		{"not found", nomerr.New(nomerr.CodeModelsBackboneNotFound, "x"), nomerr.IsNotFound, true},
		{"conflict", nomerr.New(nomerr.CodeVectorPromotionConflict, "x"), nomerr.IsConflict, true},
		{"invalid input", nomerr.New(nomerr.CodeVectorDimensionInvalid, "x"), nomerr.IsInvalidInput, true},
		{"wrong predicate", nomerr.New(nomerr.CodeStoreDatabaseFailure, "x"), nomerr.IsDrainIncomplete, false},
		{"nil", nil, nomerr.IsDrainIncomplete, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", nomerr.New(nomerr.CodeModelsBackboneNotFound, "x"), http.StatusNotFound},
		{"conflict", nomerr.New(nomerr.CodeVectorPromotionConflict, "x"), http.StatusConflict},
		{"invalid", nomerr.New(nomerr.CodeServerRequestInvalid, "x"), http.StatusBadRequest},
		{"index unavailable", nomerr.New(nomerr.CodeVectorIndexUnavailable, "x"), http.StatusServiceUnavailable},
		{"database", nomerr.New(nomerr.CodeStoreDatabaseFailure, "x"), http.StatusInternalServerError},
		{"plain error", stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nomerr.HTTPStatus(tt.err))
		})
	}
}
