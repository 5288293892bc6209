// Package validation checks customer and admin input before anything is
// persisted. Rules are expressed as binding tags and evaluated by gin's
// validator engine, so the edge bind and the handler re-check share one
// rule set.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/autoteile-schmidt/service-portal-api/utils"
)

// DefaultMessage is shown to submitters whenever a form is rejected.
const DefaultMessage = "Alle Pflichtfelder müssen ausgefüllt sein"

// DateLayout is the calendar-day format accepted by date fields.
const DateLayout = "2006-01-02"

var vinPattern = regexp.MustCompile(`^[A-Z0-9]{17}$`)

// ValidationError carries a user-facing message plus per-field details.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

// New returns a ValidationError with the default message and the given fields.
func New(fields map[string]string) *ValidationError {
	return &ValidationError{Message: DefaultMessage, Fields: fields}
}

// Normalizer is implemented by forms that clean their input before the
// authoritative check.
type Normalizer interface {
	Normalize()
}

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		panic("validation: gin validator engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "plausibleyear", plausibleYear)
	mustRegister(v, "isodate", isoDate)
	mustRegister(v, "vin", vin)
	mustRegister(v, "storagepath", storagePath)
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Validate normalizes the form when it supports it and runs every rule.
// It returns nil or a *ValidationError.
func Validate(form interface{}) error {
	if n, ok := form.(Normalizer); ok {
		n.Normalize()
	}
	return FromError(binding.Validator.ValidateStruct(form))
}

// BindJSON decodes the request body into form, normalizes it and validates
// the result. Rules run once, on the normalized values.
func BindJSON(c *gin.Context, form interface{}) error {
	if err := c.ShouldBindWith(form, decodeOnly{}); err != nil {
		return FromError(err)
	}
	return Validate(form)
}

// decodeOnly is binding.JSON without the validation step.
type decodeOnly struct{}

func (decodeOnly) Name() string { return "json" }

func (decodeOnly) Bind(req *http.Request, obj interface{}) error {
	if req == nil || req.Body == nil {
		return errors.New("invalid request")
	}
	return json.NewDecoder(req.Body).Decode(obj)
}

// FromError converts binding and validator failures into a ValidationError.
// Errors of any other kind are wrapped unchanged in the default message.
func FromError(err error) error {
	if err == nil {
		return nil
	}

	var existing *ValidationError
	if errors.As(err, &existing) {
		return existing
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = message(fe)
		}
		return New(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return New(map[string]string{typeErr.Field: "Ungültiger Wert"})
	}

	return New(nil)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Pflichtfeld"
	case "email":
		return "Ungültige E-Mail-Adresse"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Mindestens %s Einträge", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Mindestens %s Zeichen", fe.Param())
		}
		return fmt.Sprintf("Mindestens %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Höchstens %s Zeichen", fe.Param())
		}
		return fmt.Sprintf("Höchstens %s", fe.Param())
	case "gt":
		return fmt.Sprintf("Muss größer als %s sein", fe.Param())
	case "gte":
		return fmt.Sprintf("Muss mindestens %s sein", fe.Param())
	case "oneof":
		return "Ungültige Auswahl"
	case "plausibleyear":
		return "Ungültiges Baujahr"
	case "isodate":
		return "Ungültiges Datum"
	case "vin":
		return "Ungültige Fahrgestellnummer"
	case "storagepath":
		return "Unbekannter Anhang"
	default:
		return "Ungültiger Wert"
	}
}

// plausibleYear accepts 1900 up to next year.
func plausibleYear(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year >= 1900 && year <= int64(time.Now().Year()+1)
}

func isoDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func vin(fl validator.FieldLevel) bool {
	return vinPattern.MatchString(fl.Field().String())
}

// storagePath only lets forms reference files stored through the upload
// endpoint, never arbitrary bucket keys.
func storagePath(fl validator.FieldLevel) bool {
	return utils.IssuedStoragePath(fl.Field().String())
}
