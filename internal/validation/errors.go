package validation

import "strings"

// Issue is one field level problem. Path is the JSON key, empty for the body
// itself.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists every issue found in a request, in field order.
type ValidationError struct {
	Issues []Issue
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.Issues))
	for _, issue := range v.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) HasIssues() bool {
	return v != nil && len(v.Issues) > 0
}

func (v *ValidationError) Add(path, message string) {
	v.Issues = append(v.Issues, Issue{Path: path, Message: message})
}

func (v *ValidationError) hasPath(path string) bool {
	for _, issue := range v.Issues {
		if issue.Path == path {
			return true
		}
	}
	return false
}

// Invalid builds a single issue error.
func Invalid(path, message string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Path: path, Message: message}}}
}

// orNil keeps a typed nil pointer from turning into a non-nil error.
func (v *ValidationError) orNil() error {
	if v.HasIssues() {
		return v
	}
	return nil
}
