package models

import (
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags
	notBlankTag     = "notblank"
	isoDateTag      = "isodate"
	clockTag        = "clock"
	deadlineTypeTag = "deadlinetype"
)

var customTexts = map[string]string{
	"required":      "{0} is required",
	notBlankTag:     "{0} is required",
	isoDateTag:      "{0} must be a date in YYYY-MM-DD form",
	clockTag:        "{0} must be a time in HH:MM form",
	deadlineTypeTag: "{0} is not a known deadline type",
}

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = Validate.RegisterValidation(isoDateTag, func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	})
	_ = Validate.RegisterValidation(clockTag, func(fl validator.FieldLevel) bool {
		_, err := time.Parse(TimeLayout, fl.Field().String())
		return err == nil && len(fl.Field().String()) == len(TimeLayout)
	})
	_ = Validate.RegisterValidation(deadlineTypeTag, func(fl validator.FieldLevel) bool {
		return DeadlineType(fl.Field().String()).Valid()
	})

	for tag, text := range customTexts {
		registerTranslation(tag, text)
	}
}

func registerTranslation(tag, text string) {
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// IsDate reports whether s is a real calendar date in zero-padded ISO form.
func IsDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned before any network call when input is rejected.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func (err *ValidationError) Error() string {
	if len(err.Fields) == 0 {
		if err.Err == nil {
			return "invalid input"
		}
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Error)
	}
	return strings.Join(msgs, "; ")
}

// NewValidationError builds a ValidationError from the validator's output.
func NewValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Err: err}
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Error: fe.Translate(Translator)})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &ValidationError{Err: err, Fields: fields}
}

// Validate checks the create payload and normalises it in place.
func (nd *NewDeadline) Validate() error {
	nd.Title = strings.TrimSpace(nd.Title)
	nd.Description = strings.TrimSpace(nd.Description)
	if nd.Type == "" {
		nd.Type = TypeDeadline
	}
	if err := Validate.Struct(nd); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// Validate checks the fields that are set
func (p DeadlinePatch) Validate() error {
	if err := Validate.Struct(p); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// Validate trims the fields that are set and checks them
func (p *CoursePatch) Validate() error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return &ValidationError{Fields: []FieldError{{Field: "name", Error: "name is required"}}}
		}
		p.Name = &name
	}
	if p.Code != nil {
		code := strings.TrimSpace(*p.Code)
		p.Code = &code
	}
	if err := Validate.Struct(p); err != nil {
		return NewValidationError(err)
	}
	return nil
}
