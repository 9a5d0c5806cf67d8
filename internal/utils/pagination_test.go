package utils

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name       string
		page       string
		limit      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", "", 1, 10, 0},
		{"explicit", "2", "5", 2, 5, 5},
		{"garbage", "abc", "xyz", 1, 10, 0},
		{"non positive", "0", "-3", 1, 10, 0},
		{"capped", "3", "1000", 3, 100, 200},
		{"huge page", strconv.Itoa(math.MaxInt), "10", math.MaxInt / 10, 10, (math.MaxInt/10 - 1) * 10},
		{"out of int range", "99999999999999999999999", "10", 1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, Pages(0, 10))
	assert.Equal(t, 1, Pages(1, 10))
	assert.Equal(t, 1, Pages(10, 10))
	assert.Equal(t, 2, Pages(11, 10))
	assert.Equal(t, 3, Pages(25, 10))
}

func TestPage_Result(t *testing.T) {
	got := Paginate("4", "5").Result(17)
	assert.Equal(t, Pagination{Page: 4, Limit: 5, Total: 17, Pages: 4}, got)
}

func TestPaginate_OffsetNeverNegative(t *testing.T) {
	for _, limit := range []string{"1", "7", "10", "100", "1000"} {
		p := Paginate(strconv.Itoa(math.MaxInt), limit)
		assert.GreaterOrEqual(t, p.Offset, 0, limit)
		assert.GreaterOrEqual(t, math.MaxInt-p.Offset, p.Limit, "offset+limit must fit in an int")
	}
}
