package project

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

// MaxNameLength is the longest accepted project name, in characters.
const MaxNameLength = 16

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterValidation("address", func(fl validator.FieldLevel) bool {
			addr, ok := fl.Field().Interface().(common.Address)
			return ok && addr != (common.Address{})
		})
	})
	return validate
}

// ValidateCreateRequest checks field ranges before anything is persisted.
func ValidateCreateRequest(req CreateRequest) error {
	err := getValidator().Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return NewValidationError("request", err.Error())
	}

	fe := fieldErrs[0]
	return NewValidationError(fe.Field(), describe(fe))
}

// ValidatePage rejects negative paging arguments.
func ValidatePage(offset, limit int) error {
	if offset < 0 {
		return NewValidationError("offset", "must not be negative")
	}
	if limit < 0 {
		return NewValidationError("limit", "must not be negative")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "address":
		return "must be a non-zero address"
	case "min":
		if fe.Kind() == reflect.String && fe.Param() == "1" {
			return "must not be empty"
		}
		if fe.Kind() == reflect.String {
			return "must have at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must have at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
