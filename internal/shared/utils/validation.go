package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Request limits for the presentation API.
const (
	MaxPathLength       = 2048
	MaxIDLength         = 128
	MaxCapabilityLength = 256
	MaxArgsSize         = 16 * 1024
	MaxArgsDepth        = 8
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores.
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// CapabilityPattern allows the characters of capability names such as
	// "vote:t3_abc:up", "fn_3" or "more:t1_x@2".
	CapabilityPattern = regexp.MustCompile(`^[a-zA-Z0-9_:.@-]+$`)
)

// ValidateString validates a string field with length and content checks.
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}
	if strings.ContainsFunc(value, unicode.IsControl) {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateID validates an id or surface key.
func ValidateID(id, fieldName string) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, true); err != nil {
		return err
	}
	if !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}
	return nil
}

// ValidatePath validates a site path. It must be rooted.
func ValidatePath(path string) error {
	if err := ValidateString(path, "path", 1, MaxPathLength, true); err != nil {
		return err
	}
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return fmt.Errorf("path must start with a single /")
	}
	return nil
}

// ValidateCapability validates a capability name.
func ValidateCapability(name string) error {
	if err := ValidateString(name, "capability", 1, MaxCapabilityLength, true); err != nil {
		return err
	}
	if !CapabilityPattern.MatchString(name) {
		return fmt.Errorf("capability contains invalid characters")
	}
	return nil
}

// ValidateArgs checks the encoded size and nesting of capability arguments.
func ValidateArgs(args []any) error {
	data, err := sonic.ConfigStd.Marshal(args)
	if err != nil {
		return fmt.Errorf("args are not JSON: %w", err)
	}
	if len(data) > MaxArgsSize {
		return fmt.Errorf("args size %d bytes exceeds maximum %d bytes", len(data), MaxArgsSize)
	}
	return checkDepth(args, 0, MaxArgsDepth)
}

func checkDepth(data any, depth, maxDepth int) error {
	if depth > maxDepth {
		return fmt.Errorf("args nesting depth %d exceeds maximum %d", depth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]any:
		for _, value := range v {
			if err := checkDepth(value, depth+1, maxDepth); err != nil {
				return err
			}
		}
	case []any:
		for _, value := range v {
			if err := checkDepth(value, depth+1, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}
