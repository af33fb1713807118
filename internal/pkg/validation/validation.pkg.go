package validation

import (
	"errors"
	"fmt"
	"mobile-banking-core/internal/common/enum"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var val *validator.Validate

var validationMessages = map[string]string{
	"required": "is required",
	"url":      "must be a valid URL",
	"number":   "must be a number",
	"oneof":    "must be one of the allowed values: %s",
	"min":      "must be greater than or equal to %s",
	"max":      "must be less than or equal to %s",
	"len":      "must have the exact length of %s",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"lte":      "must be less than or equal to %s",
	"enum":     "must be one of the allowed enum values: %s",
	"money":    "must be a positive amount with at most two decimals",
	"currency": "must be an ISO 4217 currency code",
	"msisdn":   "must be a valid mobile number",
}

var msisdnPattern = regexp.MustCompile(`^(\+[1-9]\d{7,14}|0\d{9})$`)

func Setup() error {
	val = validator.New(validator.WithRequiredStructEnabled())

	if err := registerValidations(val); err != nil {
		return fmt.Errorf("failed to register custom validations: %w", err)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := registerValidations(v); err != nil {
			return fmt.Errorf("failed to register custom validations in Gin engine: %w", err)
		}
	} else {
		return fmt.Errorf("failed to get validation engine")
	}

	return nil
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func registerValidations(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonTagName)

	if err := v.RegisterValidation("enum", enum.ValidateEnum); err != nil {
		return fmt.Errorf("failed to register enum validation: %w", err)
	}
	if err := v.RegisterValidation("money", validateMoney); err != nil {
		return fmt.Errorf("failed to register money validation: %w", err)
	}
	if err := v.RegisterValidation("currency", validateCurrency); err != nil {
		return fmt.Errorf("failed to register currency validation: %w", err)
	}
	if err := v.RegisterValidation("msisdn", validateMsisdn); err != nil {
		return fmt.Errorf("failed to register msisdn validation: %w", err)
	}
	return nil
}

// validateMoney accepts decimal strings such as "500" or "500.00".
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return d.IsPositive() && d.Exponent() >= -2
}

func validateCurrency(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 3 {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}

func validateMsisdn(fl validator.FieldLevel) bool {
	s := strings.NewReplacer(" ", "", "-", "").Replace(fl.Field().String())
	return msisdnPattern.MatchString(s)
}

func Validate(payload any) error {
	if err := val.Struct(payload); err != nil {
		return errors.New("Validation failed: " + ParseError(err))
	}
	return nil
}

// ParseError renders validator errors as "field: message" pairs.
func ParseError(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		var sb strings.Builder
		for _, e := range errs {
			msg := validationMessages[e.Tag()]
			if msg == "" {
				msg = "is invalid"
			}
			switch e.Tag() {
			case "enum":
				msg = fmt.Sprintf(msg, e.Type())
			default:
				if strings.Contains(msg, "%s") {
					msg = fmt.Sprintf(msg, e.Param())
				}
			}
			sb.WriteString(fmt.Sprintf("%s %s, ", e.Namespace(), msg))
		}
		return strings.TrimSuffix(sb.String(), ", ")
	}
	return err.Error()
}
