package message

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anirudhraja/wirekit/schema"
)

var (
	ErrMissingRequiredFields = errors.New("message: missing required fields")
	ErrTypeMismatch          = errors.New("message: value type mismatch")
	ErrUnknownField          = errors.New("message: unknown field")
)

// MissingRequiredFieldsError lists every required field that was left unset.
// Nested fields are reported with a dotted path.
type MissingRequiredFieldsError struct {
	Type   schema.TypeID
	Fields []string
}

func (e *MissingRequiredFieldsError) Error() string {
	return fmt.Sprintf("message: %s is missing required fields: %s", e.Type, strings.Join(e.Fields, ", "))
}

// Is makes errors.Is(err, ErrMissingRequiredFields) hold.
func (e *MissingRequiredFieldsError) Is(target error) bool {
	return target == ErrMissingRequiredFields
}

func typeMismatch(name string, want string, got interface{}) error {
	return fmt.Errorf("%w: field %s expects %s, got %T", ErrTypeMismatch, name, want, got)
}
