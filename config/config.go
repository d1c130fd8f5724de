// Package config loads and validates the process's YAML configuration,
// merging multiple files in order so that a base file can be overridden
// by an environment-specific one.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"

	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"
)

// ValidationError wraps a validator.v2 ErrorMap with a field-level lookup.
type ValidationError struct {
	errorMap validator.ErrorMap
}

// ErrForField returns the validation error, if any, for the given field.
func (e ValidationError) ErrForField(name string) error {
	return e.errorMap[name]
}

// Error implements error.
func (e ValidationError) Error() string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "validation failed")
	for f, err := range e.errorMap {
		fmt.Fprintf(&w, "   %s: %v\n", f, err)
	}
	return w.String()
}

// Parse loads configFiles in order, unmarshaling each on top of the
// previous result, then validates the merged result.
func Parse(cfg interface{}, configFiles ...string) error {
	if len(configFiles) == 0 {
		return errors.New("no files to load")
	}
	for _, fname := range configFiles {
		data, err := ioutil.ReadFile(fname)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return err
		}
	}

	if err := validator.Validate(cfg); err != nil {
		if errMap, ok := err.(validator.ErrorMap); ok {
			return ValidationError{errorMap: errMap}
		}
		return err
	}
	return nil
}
