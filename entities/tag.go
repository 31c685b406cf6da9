package entities

import (
	"github.com/google/uuid"
)

type Tag struct {
	ID    uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name  string    `gorm:"uniqueIndex;not null" json:"name"`
	Color string    `gorm:"uniqueIndex;not null" json:"color"` // hex, e.g. "#E26C2D"
	Slug  string    `gorm:"uniqueIndex;not null" json:"slug"`

	Timestamp
}
