// Package validate checks mandatory fields before anything is sent to the API.
package validate

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/guregu/null/v5"

	"github.com/reportconsole/internal/models"
)

// ValidationError lists the fields, by wire name, that blocked a save.
type ValidationError struct {
	Entity  string
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Entity, strings.Join(parts, "; "))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(nullValue, null.String{}, null.Int{}, null.Bool{})
	return v
}

func nullValue(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(driver.Valuer); ok {
		val, err := valuer.Value()
		if err == nil && val != nil {
			return val
		}
	}
	return nil
}

func check(entity string, s interface{}) *ValidationError {
	verr := &ValidationError{Entity: entity}
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				verr.Missing = append(verr.Missing, fe.Field())
			} else {
				verr.Invalid = append(verr.Invalid, fe.Field())
			}
		}
	}
	return verr
}

func result(verr *ValidationError) error {
	if len(verr.Missing) == 0 && len(verr.Invalid) == 0 {
		return nil
	}
	return verr
}

// Report checks name, connection and SQL, every export, and that at most one
// schedule variant is populated.
func Report(v models.ReportView) error {
	verr := check("report", v.Report)
	for i, e := range v.Exports {
		ev := check("export", e.Export)
		for _, f := range ev.Missing {
			verr.Missing = append(verr.Missing, fmt.Sprintf("Exports[%d].%s", i, f))
		}
	}
	variants := 0
	for _, set := range []bool{v.Adhoc != nil, v.Minute != nil, v.Hour != nil, v.Week != nil, v.Month != nil} {
		if set {
			variants++
		}
	}
	if variants > 1 {
		verr.Invalid = append(verr.Invalid, "schedule")
	}
	for i, r := range v.EmailLists {
		if Email(r.Address.String) != nil {
			verr.Invalid = append(verr.Invalid, fmt.Sprintf("EmailLists[%d].fcEmailAddress", i))
		}
	}
	return result(verr)
}

// Export checks location and name.
func Export(e models.Export) error {
	return result(check("export", e))
}

// User checks the fields of the user form.
func User(u models.UserItem) error {
	return result(check("user", u))
}

// Database checks the fields of the connection form.
func Database(dc models.DatabaseConnection) error {
	return result(check("database", dc))
}

// Email checks a single address.
func Email(addr string) error {
	if err := validate.Var(addr, "required,email"); err != nil {
		return fmt.Errorf("invalid email address %q", addr)
	}
	return nil
}
