package academic

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldViolation is a single schema rule broken by a record field.
type FieldViolation struct {
	Field string
	Rule  string
	Param string
}

func (v FieldViolation) Message() string {
	if v.Param == "" {
		return fmt.Sprintf("failed on '%s'", v.Rule)
	}
	return fmt.Sprintf("failed on '%s=%s'", v.Rule, v.Param)
}

type FieldViolations []FieldViolation

func (vs FieldViolations) Error() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Field + " " + v.Message()
	}
	return "record validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate applies the schema rules a write must satisfy, independent of the
// examination-result checks.
func (r *Record) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := make(FieldViolations, len(verrs))
	for i, fe := range verrs {
		out[i] = FieldViolation{
			Field: trimRoot(fe.Namespace()),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		}
	}
	return out
}

// trimRoot drops the leading struct name validator puts on every namespace.
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
