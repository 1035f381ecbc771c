package document

import (
	"strings"
	"time"
)

// Document is the current state of a knowledge-base entry.
// CreatedBy is set once at creation and never changes.
type Document struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Summary   string    `json:"summary" bson:"summary"`
	Tags      []string  `json:"tags" bson:"tags"`
	CreatedBy string    `json:"createdBy" bson:"createdBy"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Snapshot is the versioned subset of a document's fields.
type Snapshot struct {
	Title   string   `json:"title" bson:"title"`
	Content string   `json:"content" bson:"content"`
	Summary string   `json:"summary" bson:"summary"`
	Tags    []string `json:"tags" bson:"tags"`
}

// Snapshot captures the document's versioned fields. Tags are copied so later
// mutation of the document does not leak into the snapshot.
func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		Title:   d.Title,
		Content: d.Content,
		Summary: d.Summary,
		Tags:    cloneTags(d.Tags),
	}
}

// Restore overwrites the versioned fields with s. Identity, owner and creation
// time are untouched.
func (d *Document) Restore(s Snapshot) {
	d.Title = s.Title
	d.Content = s.Content
	d.Summary = s.Summary
	d.Tags = cloneTags(s.Tags)
}

// Patch is a partial update; nil fields are left as they are.
type Patch struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Summary *string   `json:"summary"`
	Tags    *[]string `json:"tags"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Summary == nil && p.Tags == nil
}

// Apply mutates d with the fields present in p.
func (p Patch) Apply(d *Document) {
	if p.Title != nil {
		d.Title = strings.TrimSpace(*p.Title)
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.Summary != nil {
		d.Summary = *p.Summary
	}
	if p.Tags != nil {
		d.Tags = cloneTags(*p.Tags)
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Tags = cloneTags(d.Tags)
	return &c
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
