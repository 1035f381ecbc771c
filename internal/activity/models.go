package activity

import (
	"time"

	"github.com/teamkb/teamkb/internal/document"
	"github.com/teamkb/teamkb/internal/models"
)

// Action is the kind of mutation an Activity records.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a is one of the three recorded actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Activity is an immutable audit record. Document and User are soft
// references and may outlive what they point to.
type Activity struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Action    Action    `json:"action" bson:"action"`
	Document  string    `json:"document" bson:"document"`
	User      string    `json:"user" bson:"user"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// View is an Activity with its references resolved. A reference that no
// longer exists resolves to nil; DocumentID keeps the raw id either way.
type View struct {
	ID         string              `json:"id"`
	Action     Action              `json:"action"`
	DocumentID string              `json:"documentId"`
	Document   *models.DocumentRef `json:"document"`
	User       *models.UserRef     `json:"user"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// EditedDocument is a recently updated document annotated with its latest edit.
type EditedDocument struct {
	*document.Document
	LastEditedBy *models.UserRef `json:"lastEditedBy"`
	LastEditedAt time.Time       `json:"lastEditedAt"`
}
