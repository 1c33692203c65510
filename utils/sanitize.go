package utils

import "github.com/microcosm-cc/bluemonday"

// Strict policy: titles and bodies are plain text, any markup is stripped
// before persistence.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize removes HTML from user supplied content to prevent markup
// injection.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
