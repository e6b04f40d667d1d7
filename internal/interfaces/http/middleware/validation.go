package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
)

// productCodePattern accepts SKU-like codes: letters, digits, dot,
// dash and underscore, starting with a letter or digit.
var productCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

var setupOnce sync.Once

// SetupValidator makes gin's validator report JSON (or form) field names
// and registers the storefront's own tags. Safe to call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("product_code", func(fl validator.FieldLevel) bool {
			return productCodePattern.MatchString(fl.Field().String())
		})
	})
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// HandleValidationError answers a failed bind. Field rule failures list
// each field; an oversized body is 413; anything else (bad JSON, wrong
// types) is reported as a malformed request.
func HandleValidationError(c *gin.Context, err error) {
	if isBodyTooLarge(err) {
		abortTooLarge(c)
		return
	}
	requestID := GetRequestID(c)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		c.JSON(http.StatusBadRequest, dto.Fail(dto.ErrCodeInvalidJSON, "Malformed request", requestID))
		return
	}

	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)})
	}
	c.JSON(http.StatusBadRequest, dto.Invalid("Request validation failed", requestID, details))
}

var fixedMessages = map[string]string{
	"required":     "This field is required",
	"email":        "Invalid email format",
	"uuid":         "Invalid UUID format",
	"url":          "Invalid URL format",
	"numeric":      "Must be numeric",
	"product_code": "Only letters, digits, '.', '-' and '_' are allowed",
}

var boundMessages = map[string]string{
	"gte": "Must be greater than or equal to ",
	"lte": "Must be less than or equal to ",
	"gt":  "Must be greater than ",
	"lt":  "Must be less than ",
}

func describe(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}
	if prefix, ok := boundMessages[fe.Tag()]; ok {
		return prefix + fe.Param()
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "min":
		return "Must be at least " + fe.Param() + unit
	case "max":
		return "Must be at most " + fe.Param() + unit
	case "len":
		return "Must be exactly " + fe.Param() + unit
	case "oneof":
		return "Must be one of: " + fe.Param()
	}
	return "Invalid value"
}
