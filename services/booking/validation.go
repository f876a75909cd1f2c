package booking

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"appointly/apperror"
	"appointly/models"
	"appointly/services/slots"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slotlabel", func(fl validator.FieldLevel) bool {
		return slots.Valid(fl.Field().String())
	})
	return v
}

var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// sanitizeBooking trims every text field, lowercases the email, strips phone
// punctuation and puts the start time in canonical label form.
func sanitizeBooking(req models.CreateBookingRequest) models.CreateBookingRequest {
	req.Name = strings.Join(strings.Fields(req.Name), " ")
	req.Phone = phoneNoise.Replace(strings.TrimSpace(req.Phone))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.StartTime = strings.TrimSpace(req.StartTime)
	if h, err := slots.ParseHour(req.StartTime); err == nil {
		req.StartTime = slots.Label(h)
	}
	req.ScheduleID = strings.TrimSpace(req.ScheduleID)
	req.Service.Title = strings.TrimSpace(req.Service.Title)
	req.Service.Category = strings.TrimSpace(req.Service.Category)
	addOns := make([]models.AddOn, 0, len(req.Service.AddOns))
	for _, a := range req.Service.AddOns {
		a.Title = strings.TrimSpace(a.Title)
		addOns = append(addOns, a)
	}
	req.Service.AddOns = addOns
	return req
}

// validateStruct runs the struct tags and flattens failures into one
// ValidationError.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("invalid request: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperror.Validation("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "CreateBookingRequest.")
	field = strings.TrimPrefix(field, "UnblockRequest.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "phone":
		return field + " must be a valid phone number"
	case "slotlabel":
		return field + " must be an hourly slot such as 10:00am"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
