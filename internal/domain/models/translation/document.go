package translation

import (
	"time"
)

// Document is the unit of translation work for one (owner, task) pair.
type Document struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	OwnerName   string    `json:"owner_name" db:"owner_name"` // username, keys artifact paths
	TaskID      string    `json:"task_id" db:"task_id"`
	LanguageTag string    `json:"language_tag" db:"language_tag"`
	RTL         bool      `json:"rtl" db:"rtl"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Direction returns the HTML text direction for the document's language.
func (d *Document) Direction() string {
	if d.RTL {
		return DirectionRTL
	}
	return DirectionLTR
}

// OwnedBy reports whether userID owns the document.
func (d *Document) OwnedBy(userID string) bool {
	return userID != "" && d.OwnerID == userID
}

const (
	DirectionRTL = "rtl"
	DirectionLTR = "ltr"
)
