package cache

import (
	"fmt"
	"strings"
)

var (
	keyEscaper  = strings.NewReplacer(`\`, `\\`, ":", `\:`)
	globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)
)

// GenerateKeyWithParams creates a memo key from a function id and its arguments.
// Backslashes and separators inside arguments are escaped, so distinct argument lists
// never produce the same key.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, param := range params {
		b.WriteByte(':')
		b.WriteString(keyEscaper.Replace(fmt.Sprintf("%v", param)))
	}
	return b.String()
}

// BuildPattern creates a glob matching every key that extends prefix with more arguments.
// Glob metacharacters in prefix match literally. An empty prefix matches everything.
func BuildPattern(prefix string) string {
	if prefix == "" {
		return "*"
	}
	return globEscaper.Replace(prefix) + ":*"
}

// patternPrefix turns a BuildPattern glob back into the literal key prefix it matches.
func patternPrefix(pattern string) string {
	pattern = strings.TrimSuffix(pattern, "*")
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '\\' && i+1 < len(pattern) {
			i++
		}
		b.WriteByte(pattern[i])
	}
	return b.String()
}
