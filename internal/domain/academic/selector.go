package academic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Section string

const (
	SectionQualification Section = "qualification"
	SectionExperience    Section = "experience"
	SectionPublication   Section = "publication"
)

var (
	ErrInvalidDocumentType  = errors.New("invalid document type")
	ErrInvalidDocumentIndex = errors.New("invalid document index")
)

// DocumentSelector addresses the one URL slot a supporting document is
// linked into.
type DocumentSelector struct {
	Section Section
	Index   int
}

func ParseDocumentSelector(documentType, index string) (DocumentSelector, error) {
	var sel DocumentSelector
	switch Section(strings.TrimSpace(documentType)) {
	case SectionQualification:
		sel.Section = SectionQualification
	case SectionExperience:
		sel.Section = SectionExperience
	case SectionPublication:
		sel.Section = SectionPublication
	default:
		return sel, fmt.Errorf("%w: %q", ErrInvalidDocumentType, documentType)
	}

	i, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || i < 0 {
		return sel, fmt.Errorf("%w: %q", ErrInvalidDocumentIndex, index)
	}
	sel.Index = i
	return sel, nil
}

// ArrayField is the stored name of the section's array.
func (s DocumentSelector) ArrayField() string {
	switch s.Section {
	case SectionQualification:
		return "qualifications"
	case SectionExperience:
		return "experience"
	default:
		return "publications"
	}
}

// URLField is the stored name of the URL attribute inside one array element.
func (s DocumentSelector) URLField() string {
	if s.Section == SectionExperience {
		return "experience_certificate_url"
	}
	return "document_url"
}

// Path renders the dotted document path, e.g. "experience.1.experience_certificate_url".
func (s DocumentSelector) Path() string {
	return fmt.Sprintf("%s.%d.%s", s.ArrayField(), s.Index, s.URLField())
}

func (s DocumentSelector) String() string {
	return fmt.Sprintf("%s[%d]", s.Section, s.Index)
}

// CheckSlot verifies that the element sel points at exists.
func (r *Record) CheckSlot(sel DocumentSelector) error {
	var n int
	switch sel.Section {
	case SectionQualification:
		n = len(r.Qualifications)
	case SectionExperience:
		n = len(r.Experience)
	case SectionPublication:
		n = len(r.Publications)
	default:
		return ErrInvalidDocumentType
	}
	if sel.Index < 0 || sel.Index >= n {
		return fmt.Errorf("%w: %s has %d entries, got index %d", ErrInvalidDocumentIndex, sel.ArrayField(), n, sel.Index)
	}
	return nil
}

// AttachDocument stores url at sel and returns the URL it replaced.
func (r *Record) AttachDocument(sel DocumentSelector, url string) (string, error) {
	if err := r.CheckSlot(sel); err != nil {
		return "", err
	}
	switch sel.Section {
	case SectionQualification:
		return r.setQualificationDocument(sel.Index, url), nil
	case SectionExperience:
		return r.setExperienceCertificate(sel.Index, url), nil
	default:
		return r.setPublicationDocument(sel.Index, url), nil
	}
}

func (r *Record) setQualificationDocument(i int, url string) string {
	prev := r.Qualifications[i].DocumentURL
	r.Qualifications[i].DocumentURL = url
	return prev
}

func (r *Record) setExperienceCertificate(i int, url string) string {
	prev := r.Experience[i].ExperienceCertificateURL
	r.Experience[i].ExperienceCertificateURL = url
	return prev
}

func (r *Record) setPublicationDocument(i int, url string) string {
	prev := r.Publications[i].DocumentURL
	r.Publications[i].DocumentURL = url
	return prev
}
