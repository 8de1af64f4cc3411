package academic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRecordNotFound = errors.New("academic record not found")
	ErrRecordExists   = errors.New("academic record already exists")
)

type Standard string

const (
	StandardUG Standard = "UG"
	StandardPG Standard = "PG"
)

type Aggregate struct {
	CGPA       float64 `json:"cgpa" bson:"cgpa" validate:"gte=0,lte=10"`
	Class      string  `json:"class" bson:"class"`
	Percentage float64 `json:"percentage" bson:"percentage" validate:"gte=0,lte=100"`
}

type ExamResult struct {
	Branch    string    `json:"branch" bson:"branch"`
	Aggregate Aggregate `json:"aggregate" bson:"aggregate"`
}

type ExaminationResults struct {
	UG *ExamResult `json:"ug,omitempty" bson:"ug,omitempty"`
	PG *ExamResult `json:"pg,omitempty" bson:"pg,omitempty"`
}

type Qualification struct {
	Standard           Standard            `json:"standard" bson:"standard" validate:"required,oneof=UG PG"`
	Branch             string              `json:"branch" bson:"branch"`
	Degree             string              `json:"degree,omitempty" bson:"degree,omitempty" validate:"max=120"`
	Institution        string              `json:"institution,omitempty" bson:"institution,omitempty" validate:"max=200"`
	YearOfPassing      int                 `json:"year_of_passing,omitempty" bson:"year_of_passing,omitempty" validate:"omitempty,gte=1950,lte=2100"`
	ExaminationResults *ExaminationResults `json:"examination_results,omitempty" bson:"examination_results,omitempty"`
	DocumentURL        string              `json:"document_url,omitempty" bson:"document_url,omitempty" validate:"omitempty,url"`
}

type Experience struct {
	Organization             string `json:"organization" bson:"organization" validate:"max=200"`
	Designation              string `json:"designation" bson:"designation" validate:"max=120"`
	From                     string `json:"from,omitempty" bson:"from,omitempty"`
	To                       string `json:"to,omitempty" bson:"to,omitempty"`
	Description              string `json:"description,omitempty" bson:"description,omitempty" validate:"max=2000"`
	ExperienceCertificateURL string `json:"experience_certificate_url,omitempty" bson:"experience_certificate_url,omitempty" validate:"omitempty,url"`
}

type Publication struct {
	Title       string   `json:"title" bson:"title" validate:"max=500"`
	Venue       string   `json:"venue,omitempty" bson:"venue,omitempty"`
	Year        int      `json:"year,omitempty" bson:"year,omitempty" validate:"omitempty,gte=1950,lte=2100"`
	Authors     []string `json:"authors,omitempty" bson:"authors,omitempty"`
	DOI         string   `json:"doi,omitempty" bson:"doi,omitempty"`
	DocumentURL string   `json:"document_url,omitempty" bson:"document_url,omitempty" validate:"omitempty,url"`
}

type ResearchInterest struct {
	Branch string `json:"branch" bson:"branch"`
	Area   string `json:"area,omitempty" bson:"area,omitempty"`
}

// Record is the one academic profile a user owns.
type Record struct {
	UserID           uuid.UUID         `json:"user_id" bson:"-"`
	Qualifications   []Qualification   `json:"qualifications" bson:"qualifications" validate:"dive"`
	Experience       []Experience      `json:"experience" bson:"experience" validate:"dive"`
	Publications     []Publication     `json:"publications" bson:"publications" validate:"dive"`
	ResearchInterest *ResearchInterest `json:"research_interest,omitempty" bson:"research_interest,omitempty"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" bson:"updated_at"`
}

// Patch holds the top-level sections a request supplied. Nil means "leave as is".
type Patch struct {
	Qualifications   *[]Qualification
	Experience       *[]Experience
	Publications     *[]Publication
	ResearchInterest *ResearchInterest
}

func NewRecord(userID uuid.UUID, now time.Time) *Record {
	return &Record{
		UserID:         userID,
		Qualifications: []Qualification{},
		Experience:     []Experience{},
		Publications:   []Publication{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Apply replaces each section present in p wholesale. Nested values are not
// merged.
func (r *Record) Apply(p Patch, now time.Time) {
	if p.Qualifications != nil {
		r.Qualifications = *p.Qualifications
	}
	if p.Experience != nil {
		r.Experience = *p.Experience
	}
	if p.Publications != nil {
		r.Publications = *p.Publications
	}
	if p.ResearchInterest != nil {
		ri := *p.ResearchInterest
		r.ResearchInterest = &ri
	}
	r.normalize()
	r.UpdatedAt = now
}

// normalize keeps nil sections out of the stored document so reads always
// render [] rather than null.
func (r *Record) normalize() {
	if r.Qualifications == nil {
		r.Qualifications = []Qualification{}
	}
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	if r.Publications == nil {
		r.Publications = []Publication{}
	}
}

func (r *Record) ResearchBranch() string {
	if r.ResearchInterest == nil {
		return ""
	}
	return r.ResearchInterest.Branch
}

type Repository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Record, error)
	// Upsert writes r in a single conditional statement and reports whether a
	// new record was inserted.
	Upsert(ctx context.Context, r *Record) (created bool, err error)
	// Update returns ErrRecordNotFound when the user has no record.
	Update(ctx context.Context, r *Record) error
	// Create returns ErrRecordExists when the user already has a record.
	Create(ctx context.Context, r *Record) error
	// AttachDocument sets the URL at sel atomically and returns the updated
	// record together with the URL it replaced, if any.
	AttachDocument(ctx context.Context, userID uuid.UUID, sel DocumentSelector, url string) (*Record, string, error)
}
