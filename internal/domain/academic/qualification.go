package academic

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ValidPGBranches = []string{"CSE", "ECE", "EIE", "EEE", "ME"}

var (
	ErrMissingUgFields = errors.New("please fill all required fields for UG examination results")
	ErrInvalidPgBranch = errors.New("please provide a valid branch (CSE, ECE, EIE, EEE, or ME) for PG qualification")
	ErrMissingPgFields = errors.New("please fill all required fields for PG examination results")
)

// QualificationError reports the first qualification that failed and which
// of its fields were missing.
type QualificationError struct {
	Index   int
	Err     error
	Missing []string
}

func (e *QualificationError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("qualifications[%d]: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("qualifications[%d]: %v (missing: %s)", e.Index, e.Err, strings.Join(e.Missing, ", "))
}

func (e *QualificationError) Unwrap() error {
	return e.Err
}

// FieldPaths returns the missing fields as full paths into the record body.
func (e *QualificationError) FieldPaths() []string {
	prefix := fmt.Sprintf("qualifications[%d]", e.Index)
	if len(e.Missing) == 0 {
		return []string{prefix + ".branch"}
	}
	paths := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		paths[i] = prefix + "." + m
	}
	return paths
}

func IsValidPGBranch(branch string) bool {
	return slices.Contains(ValidPGBranches, branch)
}

// ValidateQualifications checks examination results in order and stops at the
// first failure. On success every PG result carries a resolved branch: the
// qualification's own when valid, else researchBranch.
func ValidateQualifications(quals []Qualification, researchBranch string) error {
	for i := range quals {
		q := &quals[i]
		if q.ExaminationResults == nil {
			continue
		}

		if q.Standard == StandardUG && q.ExaminationResults.UG != nil {
			if missing := missingResultFields("examination_results.ug", q.ExaminationResults.UG); len(missing) > 0 {
				return &QualificationError{Index: i, Err: ErrMissingUgFields, Missing: missing}
			}
		}

		if q.Standard == StandardPG && q.ExaminationResults.PG != nil {
			pg := q.ExaminationResults.PG
			switch {
			case IsValidPGBranch(q.Branch):
				pg.Branch = q.Branch
			case IsValidPGBranch(researchBranch):
				pg.Branch = researchBranch
			default:
				return &QualificationError{Index: i, Err: ErrInvalidPgBranch}
			}
			if missing := missingResultFields("examination_results.pg", pg); len(missing) > 0 {
				return &QualificationError{Index: i, Err: ErrMissingPgFields, Missing: missing}
			}
		}
	}
	return nil
}

func missingResultFields(prefix string, r *ExamResult) []string {
	var missing []string
	if r.Branch == "" {
		missing = append(missing, prefix+".branch")
	}
	if r.Aggregate.CGPA == 0 {
		missing = append(missing, prefix+".aggregate.cgpa")
	}
	if r.Aggregate.Class == "" {
		missing = append(missing, prefix+".aggregate.class")
	}
	if r.Aggregate.Percentage == 0 {
		missing = append(missing, prefix+".aggregate.percentage")
	}
	return missing
}

// ValidateQualifications runs the examination-result checks against the
// record's own research interest.
func (r *Record) ValidateQualifications() error {
	return ValidateQualifications(r.Qualifications, r.ResearchBranch())
}
