package model

import "time"

// Document is a catalogued item: user-supplied metadata plus at most one
// attached blob. It carries no persistence-specific tags.
type Document struct {
	ID           string      `json:"id"`
	Title        string      `json:"title" validate:"required,max=200"`
	Description  string      `json:"description" validate:"max=1000"`
	Tags         []string    `json:"tags"`
	Price        *float64    `json:"price,omitempty" validate:"omitempty,gte=0"`
	DocumentDate time.Time   `json:"documentDate"`
	FileName     string      `json:"fileName,omitempty"`
	Attachment   *Attachment `json:"attachment,omitempty"`
	Version      int         `json:"version"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Attachment references the blob owned by a Document. It is either absent
// (nil) or fully populated.
type Attachment struct {
	Name        string `json:"name" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"gte=0"`
	ObjectID    string `json:"objectId" validate:"required"`
}

// ObjectID returns the referenced blob id, or "" when there is no attachment.
func (d *Document) ObjectID() string {
	if d == nil || d.Attachment == nil {
		return ""
	}
	return d.Attachment.ObjectID
}
