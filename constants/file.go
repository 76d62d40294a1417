package constants

import "strings"

// CaseDelimiter separates the case identifier prefix from the rest of an
// input filename, e.g. "7001_February.pdf" -> case "7001".
const CaseDelimiter = "_"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// CaseIDFromFilename returns the token preceding the first delimiter in the
// base filename (extension stripped). A name without a delimiter is its own
// case identifier.
func CaseIDFromFilename(base string) string {
	name := base
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	if i := strings.Index(name, CaseDelimiter); i > 0 {
		return name[:i]
	}
	return name
}
