package skill

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxNameLength     = 100
	MaxCategoryLength = 50
)

// Tag is a shared, case-insensitively unique skill name. Tags outlive the
// jobs that reference them.
type Tag struct {
	ID        uuid.UUID
	Name      string
	Category  string
	CreatedAt time.Time
}

// NormalizeName trims a user supplied skill name. The result keeps its case;
// identity comparisons go through Key.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Key is the case-insensitive identity of a skill name.
func Key(name string) string {
	return strings.ToLower(NormalizeName(name))
}
