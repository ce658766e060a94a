package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult carries a loaded configuration value together with
// any fallback warnings. Value holds the typed result and must be
// asserted by the caller.
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString reads a string from the environment, returning the
// default when the variable is unset or empty. No validation.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback reads a string from the environment and runs it
// through the validator. A value that fails validation is replaced by
// the default and reported as a warning, never as an error. An unset
// variable uses the default silently.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return ConfigLoadResult{
				Value:           defaultValue,
				Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%s'", envKey, value, err, defaultValue)},
				FallbackApplied: true,
			}
		}
	}
	return ConfigLoadResult{Value: value}
}

// LoadEnvDuration reads a time.Duration from the environment. Parse
// failures and validator failures both fall back to the default with a
// warning.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%s'", envKey, value, err, defaultValue)},
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return ConfigLoadResult{
				Value:           defaultValue,
				Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%s'", envKey, value, err, defaultValue)},
				FallbackApplied: true,
			}
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvInt reads an int from the environment with the same fallback
// semantics as LoadEnvDuration.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%d'", envKey, value, err, defaultValue)},
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return ConfigLoadResult{
				Value:           defaultValue,
				Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%d'", envKey, value, err, defaultValue)},
				FallbackApplied: true,
			}
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvBool reads a bool from the environment. Accepts the values
// strconv.ParseBool accepts; anything else falls back with a warning.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return ConfigLoadResult{
			Value:           defaultValue,
			Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%t'", envKey, value, err, defaultValue)},
			FallbackApplied: true,
		}
	}
	return ConfigLoadResult{Value: parsed}
}
