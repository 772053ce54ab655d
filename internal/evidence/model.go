// Package evidence stores the supporting notes gathered for an appeal.
package evidence

import "time"

// Note is a piece of evidence attached to a property.
type Note struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	Text       string    `json:"text"`
	Author     string    `json:"author"`
	CreatedAt  time.Time `json:"created_at"`
}
