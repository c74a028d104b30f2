package catalog

import (
	"encoding/base64"
	"strings"
)

// DeriveID returns the stable identity of a scan-derived entry: the base64
// encoding of its display name with every non-alphanumeric byte removed.
// Override maps persisted by earlier versions are keyed the same way.
func DeriveID(displayName string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(displayName))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, encoded)
}

// BaseName returns the lower-cased final element of an executable path. Both
// slash styles are separators so Windows paths resolve on any host.
func BaseName(path string) string {
	path = strings.TrimSpace(path)
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		path = path[idx+1:]
	}
	return strings.ToLower(path)
}
