package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/forgo/ascend/api/internal/model"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

// custom validation tags
const (
	eventTypeTag = "eventtype"
	metricTag    = "metric"
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(eventTypeTag, func(fl validator.FieldLevel) bool {
		return model.EventType(fl.Field().String()).IsValid()
	})
	_ = validate.RegisterValidation(metricTag, func(fl validator.FieldLevel) bool {
		return model.MetricKind(fl.Field().String()).IsValid()
	})

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{eventTypeTag, metricTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case eventTypeTag:
		return fe.Field() + " must be a known activity type"
	case metricTag:
		return fe.Field() + " must be a known metric"
	}
	return fe.Field() + " is invalid"
}

// ValidateRequest checks struct tags and converts failures to a 422 problem.
// It returns nil when v is valid.
func ValidateRequest(v interface{}) *model.ProblemDetails {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewBadRequestError("invalid request body")
	}

	fields := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, model.FieldError{
			Field:   fieldPath(fe),
			Message: fe.Translate(translator),
		})
	}
	return model.NewValidationError(fields)
}

// fieldPath drops the root struct name from the namespace: criteria.metric
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}
