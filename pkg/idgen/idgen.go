// Package idgen generates short opaque identifiers. Identifiers mix a few
// quasi-stable runtime values with at least minDraws random numbers and pass
// the result through SHA-1, keeping the first n hex characters.
package idgen

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidArgument reports a length that cannot be honoured.
var ErrInvalidArgument = errors.New("idgen: invalid argument")

const (
	// SessionLength is the length of generated session and event ids.
	SessionLength = 8
	// ProfileLength is the length of generated profile ids.
	ProfileLength = 32

	// minDraws is the floor on random numbers mixed into every seed.
	minDraws = 16
)

// Generate returns an identifier of exactly length hex characters.
func Generate(length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("%w: length must be non-negative, got %d", ErrInvalidArgument, length)
	}
	if length == 0 {
		return "", nil
	}

	hashPart := hashPart(environment())
	randPart := randPart(max(length, minDraws))

	var seed string
	if len(hashPart)%2 == 1 {
		seed = hashPart + randPart
	} else {
		seed = randPart + hashPart
	}

	return digest(seed, length), nil
}

// MustGenerate is Generate for lengths known to be valid.
func MustGenerate(length int) string {
	id, err := Generate(length)
	if err != nil {
		panic(err)
	}
	return id
}

func environment() string {
	var b strings.Builder
	for _, part := range []string{runtime.Version(), runtime.GOARCH, runtime.GOOS} {
		b.WriteString(part)
		b.WriteString(strconv.Itoa(rand.IntN(9) + 1))
	}
	return b.String()
}

// hashPart encodes the decimal concatenation of the character codes of s in
// base 36.
func hashPart(s string) string {
	var codes strings.Builder
	codes.WriteByte('0')
	for _, r := range s {
		codes.WriteString(strconv.Itoa(int(r)))
	}
	return toBase36(codes.String())
}

// randPart draws count random numbers and encodes their concatenation in
// base 36.
func randPart(count int) string {
	if count <= 0 {
		return ""
	}
	upper := int(time.Now().Unix())
	if upper < 2 {
		upper = 2
	}
	var digits strings.Builder
	for i := 0; i < count; i++ {
		digits.WriteString(strconv.Itoa(rand.IntN(upper-1) + 1))
	}
	return toBase36(digits.String())
}

func toBase36(decimal string) string {
	n, ok := new(big.Int).SetString(decimal, 10)
	if !ok {
		return ""
	}
	return n.Text(36)
}

// digest hashes seed and keeps length characters. Requests longer than one
// SHA-1 hex digest are served by chaining digests.
func digest(seed string, length int) string {
	sum := sha1.Sum([]byte(seed))
	out := hex.EncodeToString(sum[:])
	for len(out) < length {
		next := sha1.Sum([]byte(out[len(out)-sha1.Size*2:] + seed))
		out += hex.EncodeToString(next[:])
	}
	return out[:length]
}
