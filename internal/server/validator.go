package server

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/abhisek/examgen/internal/quiz"
)

var (
	trans     ut.Translator
	setupOnce sync.Once
)

// SetupValidator registers JSON field names, English translations and the
// academic_level and language rules on Gin's binding engine.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*govalidator.Validate)
		if !ok {
			return
		}
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

		register(v, "academic_level", "{0} must be one of Grade 1-10, GCE O/L or GCE A/L", func(s string) bool {
			_, err := quiz.ParseAcademicLevel(s)
			return err == nil
		})
		register(v, "language", "{0} must be English or Sinhala", func(s string) bool {
			_, err := quiz.ParseLanguage(s)
			return err == nil
		})
	})
}

func register(v *govalidator.Validate, tag, msg string, ok func(string) bool) {
	_ = v.RegisterValidation(tag, func(fl govalidator.FieldLevel) bool {
		return ok(fl.Field().String())
	})
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, msg, true) },
		func(t ut.Translator, fe govalidator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// TranslateErrors maps a binding error to field name and message. Errors
// that are not validation errors are reported under "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}
