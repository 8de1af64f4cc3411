package http

import (
	"github.com/khoahotran/academic-records/internal/domain/academic"
)

// AcademicRequest is the body of POST and PUT /api/academic. Sections left
// out of the body keep their stored value.
type AcademicRequest struct {
	Qualifications   *[]academic.Qualification  `json:"qualifications"`
	Experience       *[]academic.Experience     `json:"experience"`
	Publications     *[]academic.Publication    `json:"publications"`
	ResearchInterest *academic.ResearchInterest `json:"research_interest"`
}

func (req *AcademicRequest) ToPatch() academic.Patch {
	return academic.Patch{
		Qualifications:   req.Qualifications,
		Experience:       req.Experience,
		Publications:     req.Publications,
		ResearchInterest: req.ResearchInterest,
	}
}

type CreateAcademicDetailsRequest struct {
	Qualifications []academic.Qualification `json:"qualifications"`
	Experience     []academic.Experience    `json:"experience"`
	Publications   []academic.Publication   `json:"publications"`
}

type AcademicResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Academic *academic.Record `json:"academic"`
}

type UploadDocumentResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	URL      string           `json:"url"`
	Academic *academic.Record `json:"academic"`
}

type UploadFileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url"`
}
