package utils

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type Page struct {
	Page   int
	Limit  int
	Offset int
}

// Pagination is the block returned next to list data.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Paginate turns raw page/limit query values into a window. Unparsable or
// non-positive values fall back to the defaults; limit and page are capped.
func Paginate(rawPage, rawLimit string) Page {
	page := positiveOr(rawPage, DefaultPage)
	limit := positiveOr(rawLimit, DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	// keep (page-1)*limit from overflowing
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	return Page{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func (p Page) Result(total int) Pagination {
	return Pagination{
		Page:  p.Page,
		Limit: p.Limit,
		Total: total,
		Pages: Pages(total, p.Limit),
	}
}

// Pages is ceil(total/limit).
func Pages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
