// Package slug generates candidate short keys.
// Generators are safe for concurrent use; collision handling is up to the caller.
package slug

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Style selects how candidates are drawn.
type Style string

const (
	// Pair joins a random adjective and a random name with a hyphen.
	Pair Style = "Pair"
	// UID draws a fixed-length string from an alphanumeric charset.
	UID Style = "UID"
)

// ParseStyle maps a configuration value to a Style. Anything but "UID" is Pair.
func ParseStyle(s string) Style {
	if strings.EqualFold(strings.TrimSpace(s), string(UID)) {
		return UID
	}
	return Pair
}

const (
	// lowercase letters and digits
	charsSmall = "abcdefghijklmnopqrstuvwxyz0123456789"
	// mixed case and digits without I, O, l, 0
	charsCapital = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz123456789"
)

var (
	validSmall   = regexp.MustCompile(`^[a-z0-9_-]+$`)
	validCapital = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Generator generates candidate slugs.
type Generator interface {
	Generate(style Style, length int, allowCapitals bool) (string, error)
}

type randomGenerator struct{}

// New returns the default Generator.
func New() Generator {
	return randomGenerator{}
}

// Generate returns a candidate slug. length is ignored for the Pair style.
func (randomGenerator) Generate(style Style, length int, allowCapitals bool) (string, error) {
	if style == UID {
		if length <= 0 {
			return "", errors.New("slug length must be positive")
		}
		alphabet := charsSmall
		if allowCapitals {
			alphabet = charsCapital
		}
		return gonanoid.Generate(alphabet, length)
	}

	adjective, err := pick(adjectives[:])
	if err != nil {
		return "", err
	}
	name, err := pick(names[:])
	if err != nil {
		return "", err
	}
	return adjective + "-" + name, nil
}

// Valid reports whether s only contains characters allowed in a shortlink.
func Valid(s string, allowCapitals bool) bool {
	if allowCapitals {
		return validCapital.MatchString(s)
	}
	return validSmall.MatchString(s)
}

// Alphabet returns the charset used by the UID style.
func Alphabet(allowCapitals bool) string {
	if allowCapitals {
		return charsCapital
	}
	return charsSmall
}

func pick(words []string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", err
	}
	return words[n.Int64()], nil
}
