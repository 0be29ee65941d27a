package validator

import (
	"fmt"
	"phishsim/pkg/errutil"
	"reflect"
	"strings"
)

// Validator checks a single (possibly pointer) field value.
type Validator interface {
	Validate(name string, value reflect.Value) error
}

// Form validates the fields of a request struct by their json/schema tag name.
type Form struct {
	validators map[string]Validator
}

func MustForm(validators map[string]Validator) *Form {
	return &Form{validators: validators}
}

func (f *Form) Validate(req interface{}) error {
	v := reflect.ValueOf(req)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return errutil.ValidationError(fmt.Errorf("request is nil"))
		}
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return errutil.ValidationError(fmt.Errorf("request is not a struct"))
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := fieldName(t.Field(i))
		validator, ok := f.validators[name]
		if !ok {
			continue
		}

		if err := validator.Validate(name, v.Field(i)); err != nil {
			return errutil.ValidationError(err)
		}
	}

	return nil
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "schema"} {
		if v, ok := f.Tag.Lookup(tag); ok {
			if name := strings.Split(v, ",")[0]; name != "" && name != "-" {
				return name
			}
		}
	}
	return f.Name
}

type String struct {
	Optional  bool
	MinLen    int
	MaxLen    int
	Validator func(s string) error
}

func (c *String) Validate(name string, value reflect.Value) error {
	s, ok, err := unwrapString(name, value, c.Optional)
	if err != nil || !ok {
		return err
	}

	if c.MinLen > 0 && len(s) < c.MinLen {
		return fmt.Errorf("%s must be at least %d characters", name, c.MinLen)
	}

	if c.MaxLen > 0 && len(s) > c.MaxLen {
		return fmt.Errorf("%s must be at most %d characters", name, c.MaxLen)
	}

	if c.Validator != nil {
		if err := c.Validator(s); err != nil {
			return fmt.Errorf("%s: %v", name, err)
		}
	}

	return nil
}

type UInt64 struct {
	Optional  bool
	Validator func(ui uint64) error
}

func (c *UInt64) Validate(name string, value reflect.Value) error {
	value, ok, err := unwrapPtr(name, value, c.Optional)
	if err != nil || !ok {
		return err
	}

	if value.Kind() != reflect.Uint64 {
		return fmt.Errorf("%s is not uint64", name)
	}

	if c.Validator != nil {
		if err := c.Validator(value.Uint()); err != nil {
			return fmt.Errorf("%s: %v", name, err)
		}
	}

	return nil
}

type Slice struct {
	Optional  bool
	MinLen    int
	MaxLen    int
	Validator Validator
}

func (c *Slice) Validate(name string, value reflect.Value) error {
	if value.Kind() != reflect.Slice {
		return fmt.Errorf("%s is not a slice", name)
	}

	if value.Len() == 0 {
		if c.Optional && c.MinLen == 0 {
			return nil
		}
		if c.MinLen > 0 {
			return fmt.Errorf("%s must have at least %d elements", name, c.MinLen)
		}
	}

	if c.MinLen > 0 && value.Len() < c.MinLen {
		return fmt.Errorf("%s must have at least %d elements", name, c.MinLen)
	}

	if c.MaxLen > 0 && value.Len() > c.MaxLen {
		return fmt.Errorf("%s must have at most %d elements", name, c.MaxLen)
	}

	if c.Validator != nil {
		for i := 0; i < value.Len(); i++ {
			elem := value.Index(i)
			if form, ok := interface{}(c.Validator).(*Form); ok {
				if err := form.Validate(elem.Interface()); err != nil {
					return err
				}
				continue
			}
			if err := c.Validator.Validate(fmt.Sprintf("%s[%d]", name, i), elem); err != nil {
				return err
			}
		}
	}

	return nil
}

func unwrapPtr(name string, value reflect.Value, optional bool) (reflect.Value, bool, error) {
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			if optional {
				return value, false, nil
			}
			return value, false, fmt.Errorf("%s is required", name)
		}
		value = value.Elem()
	}
	return value, true, nil
}

func unwrapString(name string, value reflect.Value, optional bool) (string, bool, error) {
	value, ok, err := unwrapPtr(name, value, optional)
	if err != nil || !ok {
		return "", ok, err
	}

	if value.Kind() != reflect.String {
		return "", false, fmt.Errorf("%s is not a string", name)
	}

	return value.String(), true, nil
}
