// Package healthtip manages localized health education tips shown to
// patients.
package healthtip

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// supportedLanguages are the language codes tips may be published in.
var supportedLanguages = map[string]struct{}{
	"en": {},
	"tw": {},
	"ee": {},
	"ga": {},
	"ha": {},
}

// ParseLanguage validates a language code. Empty input defaults to English.
func ParseLanguage(s string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(s))
	if code == "" {
		return "en", nil
	}
	if _, ok := supportedLanguages[code]; !ok {
		return "", fmt.Errorf("unsupported language %q", s)
	}
	return code, nil
}

// HealthTip is a single published tip.
type HealthTip struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Category  string    `db:"category" json:"category"`
	Language  string    `db:"language" json:"language"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Filter narrows tip listings.
type Filter struct {
	Language string
	Category string
}
