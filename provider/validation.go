package provider

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ValidateConfigFields validates a config map against the required fields a
// provider declares. Shared by all provider implementations.
func ValidateConfigFields(providerName string, config map[string]string, fields []ConfigField) error {
	for _, field := range fields {
		value, exists := config[field.Key]

		if field.Required && (!exists || strings.TrimSpace(value) == "") {
			return fmt.Errorf("%s: required configuration field missing: %s (%s)", providerName, field.Key, field.Description)
		}

		if !exists || value == "" {
			continue
		}

		if err := validateFieldValue(field, value); err != nil {
			return fmt.Errorf("%s: invalid value for %s: %w", providerName, field.Key, err)
		}
	}
	return nil
}

func validateFieldValue(field ConfigField, value string) error {
	switch field.Type {
	case "number":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("must be numeric")
		}
	case "boolean":
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("must be a boolean")
		}
	case "url":
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("must be a valid URL")
		}
	case "email":
		if !strings.Contains(value, "@") {
			return fmt.Errorf("must be a valid email address")
		}
	}

	if field.MinLength > 0 && len(value) < field.MinLength {
		return fmt.Errorf("must be at least %d characters", field.MinLength)
	}
	if field.MaxLength > 0 && len(value) > field.MaxLength {
		return fmt.Errorf("must be at most %d characters", field.MaxLength)
	}

	if field.Pattern != "" {
		matched, err := regexp.MatchString(field.Pattern, value)
		if err != nil {
			return fmt.Errorf("invalid validation pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("does not match expected format")
		}
	}

	return nil
}
