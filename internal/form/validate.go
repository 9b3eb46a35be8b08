package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"sessions-admin/internal/timefmt"
)

const (
	msgRequired    = "is required"
	msgEmail       = "must be a valid email address"
	msgMobile      = "must be exactly 10 digits"
	msgDate        = "must be a date in YYYY-MM-DD form"
	msgFacultyType = "must be one of Guest, Internal, Keynote, Panelist"
	msgTimeSlot    = "must be a half-hour time such as 9:30 AM"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	if err := v.RegisterValidation("timeslot", func(fl validator.FieldLevel) bool {
		return timefmt.IsSlot(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func trimDraft(d Draft) Draft {
	for _, field := range fieldOrder {
		p := d.ptr(field)
		*p = strings.TrimSpace(*p)
	}
	return d
}

func validateDraft(d Draft) error {
	err := validate.Struct(trimDraft(d))
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{FieldErrors: make(map[Field]string, len(verrs))}
	for _, fe := range verrs {
		field := Field(fe.Field())
		if _, seen := out.FieldErrors[field]; seen {
			continue
		}
		out.FieldErrors[field] = message(field, fe.Tag())
	}
	return out
}

func message(field Field, tag string) string {
	if tag == "required" {
		return msgRequired
	}
	switch field {
	case FieldEmail:
		return msgEmail
	case FieldMobile:
		return msgMobile
	case FieldDate:
		return msgDate
	case FieldFacultyType:
		return msgFacultyType
	case FieldStartTime, FieldEndTime:
		return msgTimeSlot
	}
	return "is invalid"
}
