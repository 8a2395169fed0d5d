package ingest

import (
	"math/rand/v2"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// randomSpace bounds the random component of generated names.
const randomSpace = 1_000_000_000_000

// NameFunc produces the storage name for an accepted part.
// Implementations must be safe for concurrent use.
type NameFunc func(field, originalName string) string

// GenerateName returns "<field>-<unix millis>-<random><originalName>".
func GenerateName(field, originalName string) string {
	var b strings.Builder
	b.Grow(len(field) + len(originalName) + 32)
	b.WriteString(field)
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 10))
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(rand.Int64N(randomSpace), 10))
	b.WriteString(SanitizeName(originalName))
	return b.String()
}

// SanitizeName reduces a client supplied file name to a safe base name.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	name = strings.ReplaceAll(name, "..", "")
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '/' {
			return -1
		}
		return r
	}, name)
}
