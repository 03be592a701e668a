package translation

import "time"

// RevisionKind discriminates the Revision variants.
type RevisionKind string

const (
	KindVersion  RevisionKind = "version"
	KindParticle RevisionKind = "particle"
)

// Revision is a stored snapshot of a Document's text. It is either a durable
// *Version or the single mutable *Particle; the set of variants is closed.
type Revision interface {
	RevisionID() string
	RevisionDocumentID() string
	RevisionKind() RevisionKind
	RevisionText() string
	isRevision()
}

// Version is an immutable, timestamped full snapshot of a Document's text.
type Version struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Text       string    `json:"text" db:"text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	Seq        int64     `json:"-" db:"seq"` // insertion order, breaks CreatedAt ties
}

func (v *Version) RevisionID() string         { return v.ID }
func (v *Version) RevisionDocumentID() string { return v.DocumentID }
func (v *Version) RevisionKind() RevisionKind { return KindVersion }
func (v *Version) RevisionText() string       { return v.Text }
func (v *Version) isRevision()                {}

// Particle is the in-progress autosave snapshot newer than the latest Version.
type Particle struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Text       string    `json:"text" db:"text"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

func (p *Particle) RevisionID() string         { return p.ID }
func (p *Particle) RevisionDocumentID() string { return p.DocumentID }
func (p *Particle) RevisionKind() RevisionKind { return KindParticle }
func (p *Particle) RevisionText() string       { return p.Text }
func (p *Particle) isRevision()                {}

// RevisionSummary is a listing row without text.
type RevisionSummary struct {
	ID        string       `json:"id"`
	Kind      RevisionKind `json:"kind"`
	Timestamp time.Time    `json:"timestamp"`
}

// Summary returns the listing row for a version.
func (v *Version) Summary() RevisionSummary {
	return RevisionSummary{ID: v.ID, Kind: KindVersion, Timestamp: v.CreatedAt}
}

// Summary returns the listing row for a particle.
func (p *Particle) Summary() RevisionSummary {
	return RevisionSummary{ID: p.ID, Kind: KindParticle, Timestamp: p.UpdatedAt}
}

// Order selects the direction of a version listing.
type Order string

const (
	OldestFirst Order = "oldest"
	NewestFirst Order = "newest"
)

// ParseOrder maps a query value to an Order, defaulting to OldestFirst.
func ParseOrder(s string) Order {
	if Order(s) == NewestFirst {
		return NewestFirst
	}
	return OldestFirst
}

// SaveOutcome reports what a particle save did.
type SaveOutcome string

const (
	OutcomeNotModified SaveOutcome = "not_modified"
	OutcomeCreated     SaveOutcome = "created"
	OutcomeUpdated     SaveOutcome = "updated"
)

// Message is the short status text editors show after an autosave.
func (o SaveOutcome) Message() string {
	if o == OutcomeNotModified {
		return "Not Modified"
	}
	return "done"
}
