package validation

import (
	"fmt"
	"strings"

	"github.com/storefront/catalogapi/internal/domain/product"
)

// Message renders a failed rule the way clients see it.
func Message(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "len":
		return "must be exactly " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "http_url":
		return "must be a valid http(s) URL"
	case TagPersonName:
		return "can only contain letters and spaces"
	case TagStrongPassword:
		return "must contain at least one lowercase letter, one uppercase letter, and one number"
	case TagBcryptLength:
		return fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes)
	case TagCategory:
		names := make([]string, len(product.Categories))
		for i, c := range product.Categories {
			names[i] = string(c)
		}
		return "must be one of " + strings.Join(names, ", ")
	case TagAtLeastOne:
		return "at least one field must be provided for update"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
