package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIDLength bounds block, node, session and draft identifiers.
const maxIDLength = 128

// ValidateID validates an identifier supplied by a caller (block id, node id,
// session id). It rejects values that could break canonical position keys or
// storage keys:
//   - No empty ids
//   - No control characters
//   - No "," or "|" (separators of the canonical positions key)
//   - Maximum length of 128 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidArgs, "id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidArgs, "id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidArgs, "id contains invalid control characters")
		}
	}

	if strings.ContainsAny(id, ",|") {
		return New(ErrCodeInvalidArgs, "id cannot contain ',' or '|': %q", id)
	}

	return nil
}

// hexColorRegex matches #RGB, #RRGGBB and #RRGGBBAA colors.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidateColor validates a text or background color override.
// The empty string is accepted and means "use the template default".
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if color == "transparent" {
		return nil
	}
	if !hexColorRegex.MatchString(color) {
		return New(ErrCodeInvalidArgs, "invalid color: %q (want #RGB, #RRGGBB or #RRGGBBAA)", color)
	}
	return nil
}

// ValidateTextAlign validates a text alignment override.
func ValidateTextAlign(align string) error {
	switch align {
	case "", "left", "center", "right", "justify":
		return nil
	}
	return New(ErrCodeInvalidArgs, "invalid text alignment: %q", align)
}
