// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nomarr Contributors

package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	// Model-registry metadata problems. Fatal to a promotion run; surfaced
	// before anything is mutated.
	CodeModelsBackboneNotFound      Code = "models.backbone.not_found"
	CodeModelsEmbedDimUndetermined  Code = "models.embed_dim.undetermined"
	CodeModelsRegistryLoadFailure   Code = "models.registry.load.failure"
	CodeModelsRegistryParseInvalid  Code = "models.registry.parse.invalid_format"

	// Vector lifecycle failures.
	CodeVectorDrainIncomplete   Code = "vector.promotion.drain.incomplete"
	CodeVectorPromotionConflict Code = "vector.promotion.conflict"
	CodeVectorIndexCreateFailed Code = "vector.index.create.failure"
	CodeVectorIndexUnavailable  Code = "vector.index.unavailable"
	CodeVectorDimensionInvalid  Code = "vector.dimension.invalid_input"

	// Store failures.
	CodeStoreDatabaseFailure    Code = "store.database.failure"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"
	CodeStoreInvalidInput       Code = "store.invalid_input"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerEntityNotFound  Code = "server.entity.not_found"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerStartFailure    Code = "server.start.failure"

	CodeCLISetupFailure Code = "cli.setup.failure"
	CodeCLIInputInvalid Code = "cli.input.invalid"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldBackbone(value string) Attr {
	return Field("backbone", value)
}

func FieldFileID(value string) Attr {
	return Field("file_id", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

// FieldsOf returns the structured context attached to an error chain.
func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsConflict(err error) bool {
	return reason(CodeOf(err)) == "conflict"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

// IsDrainIncomplete reports whether a promotion run stopped because the hot
// collection still held records after the drain step.
func IsDrainIncomplete(err error) bool {
	return HasCode(err, CodeVectorDrainIncomplete)
}

// IsIndexUnavailable reports whether a search failed because the cold
// collection carries no similarity index.
func IsIndexUnavailable(err error) bool {
	return HasCode(err, CodeVectorIndexUnavailable)
}

// IsEmbedDimUndetermined reports whether embedding dimensionality could not
// be resolved from registry metadata.
func IsEmbedDimUndetermined(err error) bool {
	return HasCode(err, CodeModelsEmbedDimUndetermined)
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsIndexUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
