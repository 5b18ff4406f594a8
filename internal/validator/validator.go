package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stemsi/student-dashboard/internal/grading"
)

// trans is the singleton English translator for validation errors.
var (
	trans ut.Translator
	once  sync.Once
)

// customTags are the student-specific validation tags and their messages.
var customTags = []struct {
	tag     string
	fn      govalidator.Func
	message string
}{
	{
		tag: "personname",
		fn: func(fl govalidator.FieldLevel) bool {
			_, err := grading.ValidateName(fl.Field().String())
			return err == nil
		},
		message: "{0} must contain only letters and spaces",
	},
	{
		tag: "gender",
		fn: func(fl govalidator.FieldLevel) bool {
			_, ok := grading.NormalizeGender(fl.Field().String())
			return ok
		},
		message: "{0} must be one of " + strings.Join(grading.Genders, ", "),
	},
}

// Setup registers the validator with English translations and the custom
// student tags on Gin's binding engine. Safe to call more than once.
func Setup() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*govalidator.Validate)
		if !ok {
			return
		}

		// Use JSON tag name for field names in error messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		for _, ct := range customTags {
			ct := ct
			_ = v.RegisterValidation(ct.tag, ct.fn)
			_ = v.RegisterTranslation(ct.tag, trans,
				func(t ut.Translator) error {
					return t.Add(ct.tag, ct.message, true)
				},
				func(t ut.Translator, fe govalidator.FieldError) string {
					msg, err := t.T(ct.tag, fe.Field())
					if err != nil {
						return fe.Error()
					}
					return msg
				},
			)
		}
	})
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name → human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if trans == nil {
				fields[fe.Field()] = fe.Error()
				continue
			}
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst, choosing JSON or form
// decoding from the Content-Type header.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBind(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
