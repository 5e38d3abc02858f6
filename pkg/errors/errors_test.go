package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(ErrCodeEmptySectorList, "no matching columns")

	assert.Equal(t, ErrCodeEmptySectorList, err.Code)
	assert.Contains(t, err.Error(), "EST_001")
	assert.Contains(t, err.Error(), "no matching columns")
	assert.NotEmpty(t, err.Stack)
}

func TestErrorFormatIncludesDetail(t *testing.T) {
	err := New(ErrCodeSectorMismatch, "country lacks a sector").WithDetail("BRA_C20")

	assert.Equal(t, "[EST_003] country lacks a sector: BRA_C20", err.Error())
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeDataSourceUnavailable, "fetch failed")

	require.NotNil(t, err)
	assert.Equal(t, ErrCodeDataSourceUnavailable, err.Code)
	assert.ErrorIs(t, err, cause)
}

func TestWrapNilReturnsNil(t *testing.T) {
	var got *AppError = Wrap(nil, ErrCodeInternal, "whatever")
	assert.Nil(t, got)
}

func TestWrapUnknownCodeAdoptsInnerCode(t *testing.T) {
	inner := New(ErrCodeDegenerateMatrix, "empty matrix")
	err := Wrap(inner, CodeUnknown, "pipeline failed")

	assert.Equal(t, ErrCodeDegenerateMatrix, err.Code)
}

func TestIsCodeTraversesChain(t *testing.T) {
	inner := New(ErrCodeSolverNonConverged, "budget exhausted")
	outer := fmt.Errorf("run aborted: %w", inner)

	assert.True(t, IsCode(outer, ErrCodeSolverNonConverged))
	assert.False(t, IsCode(outer, ErrCodeDegenerateMatrix))
	assert.False(t, IsCode(nil, ErrCodeDegenerateMatrix))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeEmptyCountrySet, GetCode(New(ErrCodeEmptyCountrySet, "empty")))
}

func TestWithDetailReturnsCopy(t *testing.T) {
	base := New(ErrCodeNotFound, "run not found")
	detailed := base.WithDetail("abc-123")

	assert.Empty(t, base.Detail)
	assert.Equal(t, "abc-123", detailed.Detail)
	assert.Equal(t, base.Code, detailed.Code)
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatusForCode(ErrCodeNotFound))
	assert.Equal(t, http.StatusBadGateway, HTTPStatusForCode(ErrCodeDataSourceUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrCodeInternal))
	// Unknown codes fall back to 500.
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("NOPE_999")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("estimation run")))
	assert.False(t, IsNotFound(Internal("boom")))
}
