package feed

import (
	"strings"
	"time"

	"crushboard/internal/models"
	"crushboard/internal/utils"
)

// Category selects which fields a search term is matched against.
type Category string

const (
	CategoryText      Category = "text"
	CategoryDate      Category = "date"
	CategoryID        Category = "id"
	CategoryCrushName Category = "crushName"
)

// Categories lists the recognized categories in display order.
var Categories = []Category{CategoryText, CategoryDate, CategoryID, CategoryCrushName}

// Filter keeps the confessions matching term under category. A blank term returns a copy of
// list unchanged.
func Filter(list []models.Confession, category Category, term string, formatDate func(*time.Time) string) []models.Confession {
	needle := strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Confession, 0, len(list))
	if needle == "" {
		return append(out, list...)
	}
	if formatDate == nil {
		formatDate = func(t *time.Time) string { return utils.FormatTimestamp(t, time.UTC) }
	}
	for i := range list {
		if Match(&list[i], category, needle, formatDate) {
			out = append(out, list[i])
		}
	}
	return out
}

// Match reports whether c matches the already lower-cased needle. Unknown categories match
// nothing.
func Match(c *models.Confession, category Category, needle string, formatDate func(*time.Time) string) bool {
	switch category {
	case CategoryText:
		return contains(c.Message, needle) || contains(c.CrushName, needle)
	case CategoryDate:
		return contains(formatDate(c.CreatedAt), needle)
	case CategoryID:
		return strings.ToLower(c.ID) == needle
	case CategoryCrushName:
		return contains(c.CrushName, needle)
	default:
		return false
	}
}

func contains(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), needle)
}
