package main

import (
	"fmt"
	"strconv"
	"time"
)

// stringValidatingValue is a string flag value with custom validation logic.
// it implements the pflag.Value interface.
type stringValidatingValue struct {
	validator func(v string) error
	value     string
}

func (v *stringValidatingValue) String() string {
	return v.value
}

func (v *stringValidatingValue) Set(param string) error {
	if err := v.validator(param); err != nil {
		return err
	}
	v.value = param
	return nil
}

func (v *stringValidatingValue) Type() string {
	return "string"
}

type intValidatingValue struct {
	validator func(v int) error
	value     int
}

func (v *intValidatingValue) String() string {
	return strconv.Itoa(v.value)
}

func (v *intValidatingValue) Set(param string) error {
	intVal, err := strconv.ParseInt(param, 10, 32)
	if err != nil {
		return fmt.Errorf("failed to parse int value: %w", err)
	}

	if err := v.validator(int(intVal)); err != nil {
		return err
	}

	v.value = int(intVal)
	return nil
}

func (v *intValidatingValue) Type() string {
	return "int"
}

// durationValidatingValue is a time.Duration flag value with custom validation logic.
// it implements the pflag.Value interface.
type durationValidatingValue struct {
	validator func(v time.Duration) error
	value     time.Duration
}

func (v *durationValidatingValue) String() string {
	return v.value.String()
}

func (v *durationValidatingValue) Set(param string) error {
	d, err := time.ParseDuration(param)
	if err != nil {
		return fmt.Errorf("failed to parse duration value: %w", err)
	}

	if err := v.validator(d); err != nil {
		return err
	}

	v.value = d
	return nil
}

func (v *durationValidatingValue) Type() string {
	return "duration"
}
