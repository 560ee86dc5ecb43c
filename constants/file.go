package constants

import "strings"

// AllowedExtensions holds the file extensions the batch walker picks up.
// The engine only understands PDF input; everything else is skipped.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
