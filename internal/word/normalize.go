package word

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// keyDisallowed matches anything that is not kept in a category key
	keyDisallowed = regexp.MustCompile(`[^a-z0-9가-힣]`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// fallbackKey is used when a display name has no usable characters.
const fallbackKey = "category"

// Slug derives the filesystem-safe base key for a display name:
// 1. Trim and lowercase
// 2. Replace every character outside [a-z0-9] and Hangul syllables with "_"
// 3. Collapse "_" runs and trim leading/trailing "_"
func Slug(displayName string) string {
	s := strings.ToLower(strings.TrimSpace(displayName))
	s = keyDisallowed.ReplaceAllString(s, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return fallbackKey
	}
	return s
}

// GenerateKey returns a key for displayName that is not in existing.
// Collisions get "_1", "_2", ... appended to the slug.
func GenerateKey(displayName string, existing map[string]bool) string {
	base := Slug(displayName)
	candidate := base
	for i := 1; existing[candidate]; i++ {
		candidate = base + "_" + strconv.Itoa(i)
	}
	return candidate
}

// NewID returns a fresh ULID for a word entry.
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// bundledEpoch is the fixed timestamp carried by every bundled entry id.
var bundledEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// StableID returns a ULID that depends only on its inputs, so bundled
// entries keep the same id across restarts.
func StableID(key string, index int, text string) string {
	sum := sha256.Sum256([]byte(key + "\x00" + strconv.Itoa(index) + "\x00" + text))
	return ulid.MustNew(ulid.Timestamp(bundledEpoch), bytes.NewReader(sum[:])).String()
}
