package merge

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPath is returned for field paths outside the /seg/seg grammar.
var ErrInvalidPath = errors.New("field must be a valid path: start with /, not end with /, and each segment must follow JavaScript variable naming rules")

// fieldPathRegex validates that field path:
//   - Starts with /
//   - Does not end with /
//   - Each segment starts with letter/_/$, followed by letters/digits/_/$/.
var fieldPathRegex = regexp.MustCompile(`^/([a-zA-Z_$][a-zA-Z0-9_$.]*(/[a-zA-Z_$][a-zA-Z0-9_$.]*)*)?$`)

// IsPath reports whether field uses the nested path form ("/a/b")
// rather than naming a single top-level key.
func IsPath(field string) bool {
	return strings.HasPrefix(field, "/")
}

func ValidateFieldPath(path string) error {
	if !fieldPathRegex.MatchString(path) {
		return ErrInvalidPath
	}
	return nil
}

// Resolve turns a document field into a gjson/sjson path.
// Plain names address one top-level key verbatim; "/a/b" addresses a nested field.
//   - "int"          -> "int"
//   - "user.name"    -> `user\.name`
//   - "/user/name"   -> "user.name"
//   - "/"            -> "" (whole document)
func Resolve(field string) (string, error) {
	if !IsPath(field) {
		return EscapeKey(field), nil
	}
	if err := ValidateFieldPath(field); err != nil {
		return "", err
	}
	return ToGjsonPath(field), nil
}

// ToGjsonPath converts a validated field path to gjson path format
// Examples:
//   - "/" -> ""
//   - "/user/profile" -> "user.profile"
//   - "/user.info/profile.data" -> `user\.info.profile\.data`
func ToGjsonPath(path string) string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return ""
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = EscapeKey(seg)
	}
	return strings.Join(segments, ".")
}

// EscapeKey escapes every byte gjson/sjson would read as path syntax.
func EscapeKey(key string) string {
	for i := 0; i < len(key); i++ {
		if isSafePathChar(key[i]) {
			continue
		}
		escaped := make([]byte, 0, len(key)+8)
		escaped = append(escaped, key[:i]...)
		for ; i < len(key); i++ {
			if !isSafePathChar(key[i]) {
				escaped = append(escaped, '\\')
			}
			escaped = append(escaped, key[i])
		}
		return string(escaped)
	}
	return key
}

// Safe characters: a-z, A-Z, 0-9, _, $, -, :, space and non-ASCII bytes
func isSafePathChar(c byte) bool {
	return c == '_' || c == '$' || c == '-' || c == ':' || c <= ' ' || c > '~' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
