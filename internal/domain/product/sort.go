package product

import (
	"fmt"
	"sort"
	"strings"
)

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortName      SortField = "name"
	SortPrice     SortField = "price"
	SortStock     SortField = "stock"
	SortCategory  SortField = "category"
	SortRating    SortField = "rating"
)

var sortFields = map[string]SortField{
	"createdat": SortCreatedAt,
	"updatedat": SortUpdatedAt,
	"name":      SortName,
	"price":     SortPrice,
	"stock":     SortStock,
	"category":  SortCategory,
	"rating":    SortRating,
}

type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort is newest first.
var DefaultSort = Sort{Field: SortCreatedAt, Desc: true}

// ParseSort resolves query input against the allow-list. Anything outside it is an error,
// the raw value never reaches storage.
func ParseSort(sortBy, sortOrder string) (Sort, error) {
	sortBy = strings.TrimSpace(sortBy)
	if sortBy == "" {
		return DefaultSort, nil
	}

	field, ok := sortFields[strings.ToLower(sortBy)]
	if !ok {
		return Sort{}, fmt.Errorf("sortBy must be one of %s", strings.Join(SortFieldNames(), ", "))
	}

	return Sort{
		Field: field,
		Desc:  !strings.EqualFold(strings.TrimSpace(sortOrder), "asc"),
	}, nil
}

func SortFieldNames() []string {
	names := make([]string, 0, len(sortFields))
	for _, f := range sortFields {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
