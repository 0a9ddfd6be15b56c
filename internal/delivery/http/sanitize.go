package http

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

var (
	labelPolicy      = bluemonday.StrictPolicy()
	controlCharRegex = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	bracketStripper  = strings.NewReplacer("<", "", ">", "")
)

// sanitizeLabel cleans a display or login name from the identity provider.
// An empty result means "keep the placeholder".
func sanitizeLabel(name string) string {
	// Remove HTML tags to prevent XSS; StrictPolicy escapes what remains
	name = html.UnescapeString(labelPolicy.Sanitize(name))
	name = bracketStripper.Replace(name)

	name = controlCharRegex.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)

	if utf8.RuneCountInString(name) > domain.MaxLabelLength {
		runes := []rune(name)
		name = strings.TrimSpace(string(runes[:domain.MaxLabelLength]))
	}

	return name
}

func sanitizeIdentity(id domain.Identity) domain.Identity {
	id.DisplayName = sanitizeLabel(id.DisplayName)
	id.Login = sanitizeLabel(id.Login)
	return id
}
