// conf/validate.go

package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct and normalizes
// filesystem paths to absolute form. A misconfigured access boundary must be
// caught here, at startup, not discovered per request.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateServerSettings(&settings.Server); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateServerSettings validates the web server and access boundary settings
func validateServerSettings(settings *ServerSettings) error {
	var errs []string

	if settings.Port != "" {
		if port, err := strconv.Atoi(settings.Port); err != nil || port < 1 || port > 65535 {
			errs = append(errs, "server port must be a number between 1 and 65535")
		}
	}

	root, rootErrs := validateRoot(settings.Root)
	errs = append(errs, rootErrs...)
	if len(rootErrs) == 0 {
		settings.Root = root
	}

	allow, allowErrs := validateAllowList(settings.Allow, root)
	errs = append(errs, allowErrs...)
	if len(allowErrs) == 0 {
		settings.Allow = allow
	}

	for i, pattern := range settings.Deny {
		if pattern == "" {
			errs = append(errs, fmt.Sprintf("server deny pattern %d is empty", i))
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Sprintf("server deny pattern %q does not compile: %v", pattern, err))
		}
	}

	for i, rule := range settings.Aliases {
		if rule.Find == "" {
			errs = append(errs, fmt.Sprintf("server alias rule %d has an empty find", i))
			continue
		}
		if rule.Regex {
			if _, err := regexp.Compile(rule.Find); err != nil {
				errs = append(errs, fmt.Sprintf("server alias pattern %q does not compile: %v", rule.Find, err))
			}
		} else if !strings.HasPrefix(rule.Find, "/") {
			errs = append(errs, fmt.Sprintf("server alias prefix %q must start with /", rule.Find))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("server settings errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateRoot checks the project root and returns its absolute form
func validateRoot(root string) (string, []string) {
	if root == "" {
		return "", []string{"server root is required"}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", []string{fmt.Sprintf("server root %q cannot be made absolute: %v", root, err)}
	}

	info, err := os.Stat(abs)
	switch {
	case os.IsNotExist(err):
		return "", []string{fmt.Sprintf("server root %q does not exist", abs)}
	case err != nil:
		return "", []string{fmt.Sprintf("server root %q is not accessible: %v", abs, err)}
	case !info.IsDir():
		return "", []string{fmt.Sprintf("server root %q is not a directory", abs)}
	}

	return abs, nil
}

// validateAllowList normalizes allow-list entries to absolute paths. Relative
// entries are resolved against the project root. An empty list defaults to
// the project root itself.
func validateAllowList(allow []string, root string) ([]string, []string) {
	if len(allow) == 0 {
		if root == "" {
			return nil, nil
		}
		return []string{root}, nil
	}

	var errs []string
	normalized := make([]string, 0, len(allow))
	for i, entry := range allow {
		if entry == "" {
			errs = append(errs, fmt.Sprintf("server allow entry %d is empty", i))
			continue
		}
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(root, entry)
		}
		abs, err := filepath.Abs(entry)
		if err != nil {
			errs = append(errs, fmt.Sprintf("server allow entry %q cannot be made absolute: %v", entry, err))
			continue
		}
		normalized = append(normalized, filepath.Clean(abs))
	}
	return normalized, errs
}
