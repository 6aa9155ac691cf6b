package domain

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ShippingDetails struct {
	ID         *int64 `json:"id,omitempty"`
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone" validate:"required,phone"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required,postal_code"`
	Country    string `json:"country" validate:"required"`
	IsDefault  bool   `json:"is_default"`
}

// Persisted reports whether the backend has assigned an id.
func (d ShippingDetails) Persisted() bool {
	return d.ID != nil
}

func (d ShippingDetails) HasID(id int64) bool {
	return d.ID != nil && *d.ID == id
}

// NormalizeDefault marks the address with defaultID as the only default one.
// The input slice is not modified.
func NormalizeDefault(addresses []ShippingDetails, defaultID int64) []ShippingDetails {
	out := make([]ShippingDetails, len(addresses))
	for i, a := range addresses {
		a.IsDefault = a.HasID(defaultID)
		out[i] = a
	}
	return out
}

// DefaultAddress returns the first address flagged as default.
func DefaultAddress(addresses []ShippingDetails) (ShippingDetails, bool) {
	for _, a := range addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return ShippingDetails{}, false
}

type FormField struct {
	Value string
	Valid bool
	Error string
}

func (f *FormField) set(msg string) {
	f.Valid = msg == ""
	f.Error = msg
}

// ShippingForm is the editable counterpart of ShippingDetails.
// Validate fills the per-field flags; a fresh form reports every field invalid.
type ShippingForm struct {
	FullName   FormField
	Phone      FormField
	Street     FormField
	City       FormField
	State      FormField
	PostalCode FormField
	Country    FormField
	IsDefault  bool
}

const (
	FieldFullName   = "full_name"
	FieldPhone      = "phone"
	FieldStreet     = "street"
	FieldCity       = "city"
	FieldState      = "state"
	FieldPostalCode = "postal_code"
	FieldCountry    = "country"
)

var (
	phonePattern      = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	postalCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 \-]{1,8}[A-Za-z0-9]$`)

	validate = newValidator()
)

var fieldLabels = map[string]string{
	FieldFullName:   "Full name",
	FieldPhone:      "Phone",
	FieldStreet:     "Street",
	FieldCity:       "City",
	FieldState:      "State",
	FieldPostalCode: "Postal code",
	FieldCountry:    "Country",
}

// newValidator reports fields by their json names and knows the phone and
// postal_code rules.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(stripPhone(fl.Field().String()))
	})
	_ = v.RegisterValidation("postal_code", func(fl validator.FieldLevel) bool {
		return postalCodePattern.MatchString(fl.Field().String())
	})
	return v
}

func stripPhone(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '(' || r == ')'
	}), "")
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "phone":
		return "Phone must have 7 to 15 digits"
	default:
		return label + " is invalid"
	}
}

// ValidationErrors maps a form field name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid shipping form: " + strings.Join(parts, "; ")
}

func NewShippingForm(d ShippingDetails) ShippingForm {
	return ShippingForm{
		FullName:   FormField{Value: d.FullName},
		Phone:      FormField{Value: d.Phone},
		Street:     FormField{Value: d.Street},
		City:       FormField{Value: d.City},
		State:      FormField{Value: d.State},
		PostalCode: FormField{Value: d.PostalCode},
		Country:    FormField{Value: d.Country},
		IsDefault:  d.IsDefault,
	}
}

// Validate checks every field and returns nil when the form can be submitted.
func (f *ShippingForm) Validate() error {
	fields := f.fields()
	for _, field := range fields {
		field.set("")
	}

	err := validate.Struct(f.Details())
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return err
	}
	errs := ValidationErrors{}
	for _, fe := range fes {
		field, ok := fields[fe.Field()]
		if !ok {
			continue
		}
		msg := fieldMessage(fe)
		field.set(msg)
		errs[fe.Field()] = msg
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (f *ShippingForm) fields() map[string]*FormField {
	return map[string]*FormField{
		FieldFullName:   &f.FullName,
		FieldPhone:      &f.Phone,
		FieldStreet:     &f.Street,
		FieldCity:       &f.City,
		FieldState:      &f.State,
		FieldPostalCode: &f.PostalCode,
		FieldCountry:    &f.Country,
	}
}

// Details converts the form into a not yet persisted address.
func (f ShippingForm) Details() ShippingDetails {
	return ShippingDetails{
		FullName:   strings.TrimSpace(f.FullName.Value),
		Phone:      strings.TrimSpace(f.Phone.Value),
		Street:     strings.TrimSpace(f.Street.Value),
		City:       strings.TrimSpace(f.City.Value),
		State:      strings.TrimSpace(f.State.Value),
		PostalCode: strings.TrimSpace(f.PostalCode.Value),
		Country:    strings.TrimSpace(f.Country.Value),
		IsDefault:  f.IsDefault,
	}
}
