package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)

	empty := NewPagination(1, 10, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNextPage)
	assert.False(t, empty.HasPrevPage)
}

func TestNormalizePageAndOffset(t *testing.T) {
	page, size := NormalizePage(0, 500, 20)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = NormalizePage(3, 10, 20)
	assert.Equal(t, 20, Offset(page, size))
}

func TestNormalizePageClampsHugePages(t *testing.T) {
	page, size := NormalizePage(math.MaxInt64/10, 20, 20)
	offset := Offset(page, size)
	assert.GreaterOrEqual(t, offset, 0)
	assert.LessOrEqual(t, offset, math.MaxInt32)
	assert.Equal(t, 20, size)

	page, size = NormalizePage(math.MaxInt64, 100, 20)
	assert.GreaterOrEqual(t, Offset(page, size), 0)
}
