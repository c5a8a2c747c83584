// Package codes generates the public product codes printed on labels and
// used for traceability lookups.
package codes

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const (
	productPrefix = "PC"
	suffixLen     = 4
	suffixChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewProductCode returns a code of the form PC<unix-millis><4 random letters>.
// The millisecond timestamp keeps codes roughly sortable by creation time; the
// random suffix disambiguates codes minted within the same millisecond.
func NewProductCode() (string, error) {
	suffix, err := randomSuffix(suffixLen)
	if err != nil {
		return "", fmt.Errorf("generating product code suffix: %w", err)
	}
	return fmt.Sprintf("%s%d%s", productPrefix, time.Now().UnixMilli(), suffix), nil
}

// IsProductCode reports whether value looks like a generated product code.
// Lookups use this to distinguish codes from UUID primary keys.
func IsProductCode(value string) bool {
	return strings.HasPrefix(value, productPrefix) && len(value) > len(productPrefix)
}

func randomSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = suffixChars[int(b)%len(suffixChars)]
	}
	return string(out), nil
}
