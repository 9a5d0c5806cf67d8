package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/storefront/catalogapi/internal/validation"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + " " + f.Message
}

// Normalizer is implemented by request bodies that trim or lowercase input before validation.
type Normalizer interface {
	Normalize()
}

// BindJSON decodes, normalizes and validates the body. On failure it writes a 400 listing
// every violation and returns false.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	if err := decodeJSON(ctx, out); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondError(ctx, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return false
		}
		RespondBadRequest(ctx, "Validation failed", fieldStrings(parseBindError(err, out)))
		return false
	}

	if n, ok := out.(Normalizer); ok {
		n.Normalize()
	}

	if err := binding.Validator.ValidateStruct(out); err != nil {
		RespondBadRequest(ctx, "Validation failed", fieldStrings(parseBindError(err, out)))
		return false
	}

	return true
}

func decodeJSON(ctx *gin.Context, out interface{}) error {
	if ctx.Request == nil || ctx.Request.Body == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(ctx.Request.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

func fieldStrings(fields []FieldError) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.String()
	}
	return out
}

func parseBindError(err error, out interface{}) []FieldError {
	rootType := baseStructType(out)

	// validator errors (struct bind tags)
	var validatorError validator.ValidationErrors
	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   jsonPathFromValidatorError(rootType, fieldError),
				Rule:    rule,
				Param:   param,
				Message: validation.Message(rule, param),
			})
		}
		return fields
	}

	// in the event of bad json
	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) {
		return []FieldError{{Rule: "json", Message: "request body is not valid JSON"}}
	}

	// in the event of a type mismatch
	var unmatchedTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmatchedTypeError) {
		field := jsonPathFromDotPath(rootType, unmatchedTypeError.Field)
		if field == "" {
			field = strings.TrimSpace(unmatchedTypeError.Field)
		}

		return []FieldError{{
			Field:   field,
			Rule:    "type",
			Message: fmt.Sprintf("must be of type %s", typeName(unmatchedTypeError.Type)),
		}}
	}

	// final fallback if the error could not be deciphered
	return []FieldError{{Rule: "body", Message: err.Error()}}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.String()
	}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

func jsonPathFromValidatorError(rootType reflect.Type, fieldError validator.FieldError) string {
	// Namespace format is usually "<StructName>.<Field>[.<NestedField>...]".
	namespace := fieldError.StructNamespace()
	if namespace == "" {
		return fieldError.Field()
	}

	parts := strings.Split(namespace, ".")
	if rootType != nil && rootType.Name() != "" && parts[0] == rootType.Name() {
		parts = parts[1:]
	}

	if path := mapStructPathToJSONPath(rootType, parts); path != "" {
		return path
	}

	return fieldError.Field()
}

func jsonPathFromDotPath(rootType reflect.Type, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	return mapStructPathToJSONPath(rootType, strings.Split(dotPath, "."))
}

func mapStructPathToJSONPath(rootType reflect.Type, parts []string) string {
	current := rootType
	out := make([]string, 0, len(parts))

	for _, rawPart := range parts {
		if rawPart == "" {
			continue
		}

		fieldName, indexSuffix := splitFieldIndex(rawPart)
		jsonName := fieldName

		var nextType reflect.Type
		if current != nil {
			for current.Kind() == reflect.Pointer {
				current = current.Elem()
			}

			if current.Kind() == reflect.Struct {
				if sf, ok := current.FieldByName(fieldName); ok {
					jsonName = jsonNameFromStructField(sf)
					nextType = sf.Type
				}
			}
		}

		out = append(out, jsonName+indexSuffix)
		current = unwindCollection(nextType)
	}

	return strings.Join(out, ".")
}

func splitFieldIndex(part string) (string, string) {
	idx := strings.Index(part, "[")
	if idx == -1 {
		return part, ""
	}

	return part[:idx], part[idx:]
}

func jsonNameFromStructField(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func unwindCollection(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}

	return nil
}
