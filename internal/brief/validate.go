package brief

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one failed constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationError is returned when a stage payload violates its schema. It
// never leaves the stage boundary: the caller corrects and resubmits.
type ValidationError struct {
	Stage  StageID
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("brief: %s is invalid", e.Stage)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("brief: %s is invalid: %s", e.Stage, strings.Join(parts, "; "))
}

// Field returns the first error reported for field.
func (e *ValidationError) Field(field string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Field == field {
			return f, true
		}
	}
	return FieldError{}, false
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func schemaValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		v.RegisterStructValidation(commonInfoRules, CommonInfo{})
		v.RegisterStructValidation(residentsRules, Residents{})
		v.RegisterStructValidation(premisesRules, Premises{})
		v.RegisterStructValidation(constructionRules, Construction{})
		validate = v
	})
	return validate
}

func commonInfoRules(sl validator.StructLevel) {
	info := sl.Current().Interface().(CommonInfo)
	if info.StartDate == "" || info.FinalDate == "" {
		return
	}
	start, errStart := time.Parse(DateLayout, info.StartDate)
	final, errFinal := time.Parse(DateLayout, info.FinalDate)
	if errStart != nil || errFinal != nil {
		return
	}
	if final.Before(start) {
		sl.ReportError(info.FinalDate, "finalDate", "FinalDate", "afterstart", "startDate")
	}
}

func residentsRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(Residents)
	if r.HasPets && strings.TrimSpace(r.PetDetails) == "" {
		sl.ReportError(r.PetDetails, "petDetails", "PetDetails", "required_with_pets", "")
	}
}

func premisesRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(Premises)
	seen := map[string]struct{}{}
	for i, room := range p.Rooms {
		if room.Order != i+1 {
			sl.ReportError(room.Order, fmt.Sprintf("rooms[%d].order", i), "Order", "dense", fmt.Sprint(i+1))
		}
		if room.ID == "" {
			sl.ReportError(room.ID, fmt.Sprintf("rooms[%d].id", i), "ID", "required", "")
			continue
		}
		if _, dup := seen[room.ID]; dup {
			sl.ReportError(room.ID, fmt.Sprintf("rooms[%d].id", i), "ID", "unique", "")
		}
		seen[room.ID] = struct{}{}
	}
}

func constructionRules(sl validator.StructLevel) {
	c := sl.Current().Interface().(Construction)
	for _, surface := range Surfaces {
		for i, entry := range c.Entries(surface) {
			if !isFinishType(surface, entry.Type) {
				sl.ReportError(entry.Type, fmt.Sprintf("%s[%d].type", surface, i), "Type", "oneof", strings.Join(FinishTypes(surface), " "))
			}
			if entry.Type == OtherFinish && strings.TrimSpace(entry.Material) == "" {
				sl.ReportError(entry.Material, fmt.Sprintf("%s[%d].material", surface, i), "Material", "required_for_other", "")
			}
		}
	}
}

// Validate checks a stage payload against its schema. It returns nil or a
// *ValidationError.
func Validate(stage StageID, payload any) error {
	if payload == nil {
		return &ValidationError{Stage: stage, Fields: []FieldError{{Field: "", Message: "payload is required", Code: "validation_required"}}}
	}
	err := schemaValidator().Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("brief: validate %s: %w", stage, err)
	}
	return &ValidationError{Stage: stage, Fields: formatFieldErrors(verrs)}
}

func formatFieldErrors(errs validator.ValidationErrors) []FieldError {
	details := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		field := fieldPath(err.Namespace())
		details = append(details, FieldError{
			Field:   field,
			Message: fieldMessage(err),
			Code:    "validation_" + err.Tag(),
		})
	}
	return details
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func fieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		if err.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", err.Param())
		}
		return fmt.Sprintf("must be at least %s", err.Param())
	case "lte":
		return fmt.Sprintf("must not exceed %s", err.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s entries", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", err.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in %s format", err.Param())
	case "afterstart":
		return "must not precede startDate"
	case "required_with_pets":
		return "is required when hasPets is set"
	case "required_for_other":
		return fmt.Sprintf("is required when type is %q", OtherFinish)
	case "dense":
		return fmt.Sprintf("must be %s", err.Param())
	case "unique":
		return "must be unique"
	default:
		return fmt.Sprintf("failed on the '%s' rule", err.Tag())
	}
}
