package encode

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

var rawURL = base64.URLEncoding.WithPadding(base64.NoPadding)

// tableNameRegex: letters, digits and _ - . $, not starting with a dot,
// at most 128 characters.
var tableNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_$\-][a-zA-Z0-9_$.\-]{0,127}$`)

// ValidateTableName rejects names that cannot be used as a storage prefix.
func ValidateTableName(table string) error {
	if !tableNameRegex.MatchString(table) {
		return fmt.Errorf("invalid table name %q: use up to 128 letters, digits, _ - . $, not starting with '.'", table)
	}
	return nil
}

// EncodeRedisTableName encodes a table name for use inside Redis keys.
// Safe names are kept readable behind a "(" marker, anything else is
// base64 URL encoded without padding.
func EncodeRedisTableName(table string) string {
	if len(table) == 0 {
		return ""
	}
	if IsRedisSafe(table) {
		return "(" + table
	}
	return rawURL.EncodeToString([]byte(table))
}

// DecodeRedisTableName reverses EncodeRedisTableName.
func DecodeRedisTableName(encoded string) (string, error) {
	if len(encoded) == 0 {
		return "", nil
	}
	if strings.HasPrefix(encoded, "(") {
		return encoded[1:], nil
	}
	decoded, err := rawURL.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// IsRedisSafe allows a-z, A-Z, 0-9, -, _, /, .
func IsRedisSafe(table string) bool {
	if len(table) == 0 {
		return false
	}
	for _, r := range table {
		if !((r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '-' || r == '_' || r == '/' || r == '.') {
			return false
		}
	}
	return true
}
