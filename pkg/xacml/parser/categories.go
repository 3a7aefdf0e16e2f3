package parser

import "strings"

// Attribute category identifiers.
const (
	CategoryAccessSubject = "urn:oasis:names:tc:xacml:1.0:subject-category:access-subject"
	CategoryResource      = "urn:oasis:names:tc:xacml:3.0:attribute-category:resource"
	CategoryAction        = "urn:oasis:names:tc:xacml:3.0:attribute-category:action"
	CategoryEnvironment   = "urn:oasis:names:tc:xacml:3.0:attribute-category:environment"
)

var categoryAliases = map[string]string{
	"access-subject": CategoryAccessSubject,
	"subject":        CategoryAccessSubject,
	"resource":       CategoryResource,
	"action":         CategoryAction,
	"environment":    CategoryEnvironment,
}

// ExpandCategory maps a short category name such as "resource" to its full
// identifier. Other names are returned unchanged.
func ExpandCategory(name string) string {
	if full, ok := categoryAliases[strings.ToLower(name)]; ok {
		return full
	}
	return name
}
