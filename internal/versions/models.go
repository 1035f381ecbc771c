package versions

import (
	"time"

	"github.com/teamkb/teamkb/internal/document"
	"github.com/teamkb/teamkb/internal/models"
)

// Version is an immutable ledger entry holding the state a document had
// before the update that produced it.
type Version struct {
	ID                string    `json:"id" bson:"_id,omitempty"`
	DocumentID        string    `json:"documentId" bson:"documentId"`
	VersionNumber     int       `json:"versionNumber" bson:"versionNumber"`
	document.Snapshot `bson:",inline"`
	EditedBy          string    `json:"editedBy" bson:"editedBy"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
}

// VersionView is a Version with its editor resolved for display.
// EditedBy is nil when the editor no longer exists.
type VersionView struct {
	*Version
	EditedBy *models.UserRef `json:"editedBy"`
}
