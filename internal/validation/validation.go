package validation

import (
	"errors"
	"reflect"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/storefront/catalogapi/internal/domain/product"
	"github.com/storefront/catalogapi/internal/domain/user"
)

const (
	TagPersonName     = "personname"
	TagStrongPassword = "strongpassword"
	TagCategory       = "category"
	TagAtLeastOne     = "atleastone"
	TagBcryptLength   = "bcryptlen"
)

// bcrypt refuses inputs longer than this many bytes.
const MaxPasswordBytes = 72

var (
	registerOnce sync.Once
	registerErr  error
)

// Register installs the custom rules on gin's binding engine. Safe to call more than once.
func Register() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding engine is not go-playground/validator")
			return
		}
		registerErr = registerOn(v)
	})
	return registerErr
}

func registerOn(v *validator.Validate) error {
	rules := map[string]validator.Func{
		TagPersonName:     personName,
		TagStrongPassword: strongPassword,
		TagCategory:       category,
		TagBcryptLength:   bcryptLength,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	v.RegisterStructValidation(atLeastOne, user.UpdateRequest{}, product.UpdateRequest{})

	return nil
}

func personName(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' {
			return false
		}
	}
	return true
}

func strongPassword(fl validator.FieldLevel) bool {
	var lower, upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

func bcryptLength(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPasswordBytes
}

func category(fl validator.FieldLevel) bool {
	return product.Category(fl.Field().String()).IsValid()
}

// decimalValue lets numeric tags like min=0.01 apply to money fields.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

type changeSet interface {
	HasChanges() bool
}

func atLeastOne(sl validator.StructLevel) {
	cs, ok := sl.Current().Interface().(changeSet)
	if ok && !cs.HasChanges() {
		sl.ReportError(sl.Current().Interface(), "", "", TagAtLeastOne, "")
	}
}
