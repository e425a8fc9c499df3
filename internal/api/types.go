package api

import "time"

// Document kinds understood by the backend. Actas carry commitments,
// reports do not; everything else about the lifecycle is shared.
const (
	KindReport = "reports"
	KindActa   = "actas"
)

// Document statuses as returned by the server.
const (
	StatusDraft             = "DRAFT"
	StatusPendingSignatures = "PENDING_SIGNATURES"
	StatusSigned            = "SIGNED"
	StatusSuperseded        = "SUPERSEDED"
)

// Commitment statuses.
const (
	CommitmentPending   = "PENDING"
	CommitmentCompleted = "COMPLETED"
)

type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Signatory is a user that must sign a document before it is fully
// executed. Immutable once the document is in a signable state.
type Signatory struct {
	User  UserRef `json:"user"`
	Role  string  `json:"role"`
	Order int     `json:"order"`
}

type Signature struct {
	Signer      UserRef   `json:"signer"`
	SignedAt    time.Time `json:"signedAt"`
	ConsentHash string    `json:"consentHash"`
	Method      string    `json:"method"`
}

type Commitment struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Responsible UserRef   `json:"responsible"`
	DueDate     time.Time `json:"dueDate"`
	Status      string    `json:"status"`
}

type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	URL      string `json:"url"`
}

// VersionSummary is one entry of the chain summary list the server
// returns alongside a document.
type VersionSummary struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Document is one version of an acta or report. Versions are linked
// through PreviousVersionID; the server decides which version is the
// chain head.
type Document struct {
	ID                  string           `json:"id"`
	Kind                string           `json:"kind"`
	Number              string           `json:"number"`
	Version             int              `json:"version"`
	PreviousVersionID   *string          `json:"previousVersionId,omitempty"`
	Status              string           `json:"status"`
	Summary             string           `json:"summary"`
	RequiredSignatories []Signatory      `json:"requiredSignatories"`
	Signatures          []Signature      `json:"signatures"`
	Commitments         []Commitment     `json:"commitments,omitempty"`
	Attachments         []Attachment     `json:"attachments,omitempty"`
	Versions            []VersionSummary `json:"versions,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

type CreateVersionInput struct {
	PreviousReportID string `json:"previousReportId"`
	Number           string `json:"number"`
	Summary          string `json:"summary"`
}

type UpdateDocumentInput struct {
	Status  string `json:"status,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type CreateCommitmentInput struct {
	Description string    `json:"description"`
	Responsible UserRef   `json:"responsible"`
	DueDate     time.Time `json:"dueDate"`
}

// SignRequest carries the signer identity plus the consent affirmation
// captured immediately before the call.
type SignRequest struct {
	SignerID    string    `json:"signerId"`
	ConsentText string    `json:"consentText"`
	ConsentHash string    `json:"consentHash"`
	ConsentAt   time.Time `json:"consentAt"`
	Method      string    `json:"method"`
}

// SignatureAssetMeta is everything the server reveals about a personal
// signature asset. The decrypted content is never part of it.
type SignatureAssetMeta struct {
	OwnerID   string    `json:"ownerId"`
	MimeType  string    `json:"mimeType"`
	Exists    bool      `json:"exists"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UploadAssetInput struct {
	Blob     []byte `json:"blob"`
	MimeType string `json:"mimeType"`
}

type Photo struct {
	ID      string    `json:"id"`
	Caption string    `json:"caption"`
	TakenAt time.Time `json:"takenAt"`
	URL     string    `json:"url"`
}

// PhotoCollection is the ordered photo timeline of one control point.
type PhotoCollection struct {
	OwnerID string  `json:"ownerId"`
	Photos  []Photo `json:"photos"`
}

type PhotoUpload struct {
	Name    string `json:"name"`
	Caption string `json:"caption"`
	Content []byte `json:"content"`
}

type Tokens struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}
