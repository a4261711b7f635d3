// Package i18n provides localized catalogs for user-facing error messages.
package i18n

import (
	"strings"
	"text/template"
)

// Code mirrors the error code strings from internal/errors.
// Duplicated here as plain strings to avoid an import cycle.
type Code = string

// Catalog holds the localized message templates for one locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

// Locale returns the catalog's locale tag.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message for a code, substituting metadata values into
// {{.Key}} placeholders. Unknown codes fall back to a generic message, and a
// template that fails to render falls back to the raw template text.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	msg, ok := c.messages[code]
	if !ok {
		return "An unexpected error occurred"
	}
	if !strings.Contains(msg, "{{") {
		return msg
	}

	tmpl, err := template.New("msg").Parse(msg)
	if err != nil {
		return msg
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, metadata); err != nil {
		return msg
	}
	return sb.String()
}

// GetCatalog returns the catalog for a locale, defaulting to en-US.
func GetCatalog(locale string) *Catalog {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "en-us", "en", "":
		return enUSCatalog
	default:
		return enUSCatalog
	}
}
