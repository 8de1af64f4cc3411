package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/academic-records/adapters/event"
	"github.com/khoahotran/academic-records/adapters/filestore"
	"github.com/khoahotran/academic-records/adapters/persistence"
	"github.com/khoahotran/academic-records/internal/application/service"
	academicUC "github.com/khoahotran/academic-records/internal/application/usecase/academic"
	uploadUC "github.com/khoahotran/academic-records/internal/application/usecase/upload"
	"github.com/khoahotran/academic-records/internal/domain/academic"
	"github.com/khoahotran/academic-records/pkg/auth"
	"github.com/khoahotran/academic-records/pkg/logger"
)

const uploadsDir = "/uploads"

type stubBlob struct {
	mu      sync.Mutex
	uploads []service.UploadOptions
}

func (b *stubBlob) Upload(ctx context.Context, file io.Reader, opts service.UploadOptions) (*service.UploadedAsset, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploads = append(b.uploads, opts)
	id := opts.Folder + "/" + opts.PublicID
	return &service.UploadedAsset{
		URL:          "https://res.cloudinary.com/demo/raw/upload/v1/" + id,
		PublicID:     id,
		ResourceType: opts.ResourceType,
	}, nil
}

func (b *stubBlob) Delete(ctx context.Context, publicID, resourceType string) error { return nil }

func (b *stubBlob) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.uploads)
}

type AcademicAPITestSuite struct {
	suite.Suite
	router *gin.Engine
	fs     afero.Fs
	blob   *stubBlob
	jwt    *auth.JWTService
	token  string
}

func TestAcademicAPI(t *testing.T) {
	suite.Run(t, new(AcademicAPITestSuite))
}

func (s *AcademicAPITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.jwt = auth.NewJWTService("test-secret", time.Hour, "")
}

func (s *AcademicAPITestSuite) SetupTest() {
	s.router = s.newRouter(1000)
	token, err := s.jwt.GenerateToken(uuid.New())
	s.Require().NoError(err)
	s.token = token
}

func (s *AcademicAPITestSuite) newRouter(limit int) *gin.Engine {
	log := logger.NewNop()
	s.fs = afero.NewMemMapFs()
	s.blob = &stubBlob{}

	temp, err := filestore.NewTempStore(s.fs, uploadsDir, time.Hour, log)
	s.Require().NoError(err)

	mr := miniredis.RunT(s.T())
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { _ = rdb.Close() })

	repo := persistence.NewMemoryAcademicRepo()
	pub := event.NoopPublisher{}
	dest := uploadUC.Destination{Folder: "academic_documents", ResourceType: "raw"}

	return NewRouter(RouterConfig{
		Logger:       log,
		JWTService:   s.jwt,
		RateLimiter:  NewRateLimiter(rdb, limit, 15*time.Minute, log),
		AllowOrigins: []string{"http://localhost:3000"},
		CORSMaxAge:   24 * time.Hour,
		AcademicHandler: NewAcademicHandler(
			academicUC.NewUpsertAcademicUseCase(repo, pub, log),
			academicUC.NewGetAcademicUseCase(repo, log),
			academicUC.NewUpdateAcademicUseCase(repo, pub, log),
			academicUC.NewCreateAcademicDetailsUseCase(repo, pub, log),
			log,
		),
		UploadHandler: NewUploadHandler(
			uploadUC.NewUploadDocumentUseCase(repo, temp, s.blob, pub, dest, log),
			uploadUC.NewUploadFileUseCase(temp, s.blob, dest, log),
			log,
		),
	})
}

func (s *AcademicAPITestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

type formFile struct {
	name        string
	contentType string
	content     []byte
}

func (s *AcademicAPITestSuite) upload(path string, fields map[string]string, file *formFile) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		s.Require().NoError(w.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, file.name))
		if file.contentType != "" {
			h.Set("Content-Type", file.contentType)
		}
		part, err := w.CreatePart(h)
		s.Require().NoError(err)
		_, err = part.Write(file.content)
		s.Require().NoError(err)
	}
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *AcademicAPITestSuite) stagedFiles() int {
	entries, err := afero.ReadDir(s.fs, uploadsDir)
	s.Require().NoError(err)
	return len(entries)
}

func (s *AcademicAPITestSuite) getRecord() *academic.Record {
	rr := s.do(http.MethodGet, "/api/academic", nil)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	var rec academic.Record
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &rec))
	return &rec
}

func decodeBody(rr *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return body
}

var ugBody = map[string]any{
	"qualifications": []any{map[string]any{
		"standard": "UG",
		"examination_results": map[string]any{
			"ug": map[string]any{"branch": "CSE", "aggregate": map[string]any{"cgpa": 8.5, "class": "First", "percentage": 85}},
		},
	}},
}

const pdfContent = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"

func (s *AcademicAPITestSuite) Test_Create_UG_Qualification() {
	rr := s.do(http.MethodPost, "/api/academic", ugBody)
	s.Equal(http.StatusCreated, rr.Code, rr.Body.String())
	s.Equal("Academic details created successfully", decodeBody(rr)["message"])

	rec := s.getRecord()
	s.Require().Len(rec.Qualifications, 1)
	ug := rec.Qualifications[0].ExaminationResults.UG
	s.Equal("CSE", ug.Branch)
	s.Equal(8.5, ug.Aggregate.CGPA)
	s.Equal("First", ug.Aggregate.Class)
	s.Equal(85.0, ug.Aggregate.Percentage)
}

func (s *AcademicAPITestSuite) Test_Create_PG_BranchFallsBackToResearchInterest() {
	rr := s.do(http.MethodPost, "/api/academic", map[string]any{
		"qualifications": []any{map[string]any{
			"standard": "PG",
			"branch":   "XX",
			"examination_results": map[string]any{
				"pg": map[string]any{"aggregate": map[string]any{"cgpa": 8, "class": "First", "percentage": 80}},
			},
		}},
		"research_interest": map[string]any{"branch": "CSE"},
	})
	s.Equal(http.StatusCreated, rr.Code, rr.Body.String())
	s.Equal("CSE", s.getRecord().Qualifications[0].ExaminationResults.PG.Branch)
}

func (s *AcademicAPITestSuite) Test_Upsert_SecondWriteIsUpdate() {
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/academic", ugBody).Code)

	rr := s.do(http.MethodPost, "/api/academic", map[string]any{
		"publications": []any{map[string]any{"title": "Consensus in practice"}},
	})
	s.Equal(http.StatusOK, rr.Code, rr.Body.String())

	rec := s.getRecord()
	s.Len(rec.Qualifications, 1)
	s.Len(rec.Publications, 1)
}

func (s *AcademicAPITestSuite) Test_Create_ValidationError() {
	rr := s.do(http.MethodPost, "/api/academic", map[string]any{
		"qualifications": []any{map[string]any{
			"standard":            "UG",
			"examination_results": map[string]any{"ug": map[string]any{"branch": "CSE"}},
		}},
	})
	s.Equal(http.StatusBadRequest, rr.Code)

	body := decodeBody(rr)
	s.Equal(academic.ErrMissingUgFields.Error(), body["message"])
	s.Equal(false, body["success"])
	fields, ok := body["fields"].([]any)
	s.Require().True(ok)
	s.Len(fields, 3)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/academic", nil).Code)
}

func (s *AcademicAPITestSuite) Test_Get_And_Put_MissingRecord() {
	rr := s.do(http.MethodGet, "/api/academic", nil)
	s.Equal(http.StatusNotFound, rr.Code)
	s.Equal("Academic details not found", decodeBody(rr)["message"])

	s.Equal(http.StatusNotFound, s.do(http.MethodPut, "/api/academic", ugBody).Code)
}

func (s *AcademicAPITestSuite) Test_Put_UpdatesExistingRecord() {
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/academic", ugBody).Code)

	rr := s.do(http.MethodPut, "/api/academic", map[string]any{
		"experience": []any{map[string]any{"organization": "Acme", "designation": "Lecturer"}},
	})
	s.Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Equal("Academic details updated successfully", decodeBody(rr)["message"])
	s.Len(s.getRecord().Experience, 1)
}

func (s *AcademicAPITestSuite) Test_CreateDetails_ConflictsWhenRecordExists() {
	body := map[string]any{"experience": []any{map[string]any{"organization": "Acme"}}}

	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/academic/details", body).Code)
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/api/academic/details", body).Code)
}

func (s *AcademicAPITestSuite) Test_IdenticalGetsAreByteIdentical() {
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/academic", ugBody).Code)

	first := s.do(http.MethodGet, "/api/academic", nil)
	second := s.do(http.MethodGet, "/api/academic", nil)
	s.Equal(http.StatusOK, first.Code)
	s.Equal(first.Body.Bytes(), second.Body.Bytes())
}

func (s *AcademicAPITestSuite) Test_UploadDocument_LinksExperienceCertificate() {
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/academic", map[string]any{
		"experience": []any{
			map[string]any{"organization": "Acme"},
			map[string]any{"organization": "Globex"},
		},
	}).Code)

	rr := s.upload("/api/academic/upload-document",
		map[string]string{"documentType": "experience", "index": "1"},
		&formFile{name: "certificate.pdf", contentType: "application/pdf", content: []byte(pdfContent)},
	)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var resp UploadDocumentResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.NotEmpty(resp.URL)
	s.Equal(resp.URL, resp.Academic.Experience[1].ExperienceCertificateURL)
	s.Empty(resp.Academic.Experience[0].ExperienceCertificateURL)
	s.Zero(s.stagedFiles())

	rec := s.getRecord()
	s.Equal(resp.URL, rec.Experience[1].ExperienceCertificateURL)
	s.Empty(rec.Experience[0].ExperienceCertificateURL)
}

func (s *AcademicAPITestSuite) Test_UploadDocument_RejectsNonPDF() {
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/academic", ugBody).Code)

	rr := s.upload("/api/academic/upload-document",
		map[string]string{"documentType": "qualification", "index": "0"},
		&formFile{name: "scan.png", contentType: "image/png", content: []byte("\x89PNG\r\n\x1a\nrest")},
	)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("Only PDF files are allowed!", decodeBody(rr)["message"])
	s.Zero(s.stagedFiles())
	s.Zero(s.blob.count())
}

func (s *AcademicAPITestSuite) Test_UploadDocument_UnknownDocumentType() {
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/academic", ugBody).Code)

	rr := s.upload("/api/academic/upload-document",
		map[string]string{"documentType": "thesis", "index": "0"},
		&formFile{name: "thesis.pdf", contentType: "application/pdf", content: []byte(pdfContent)},
	)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("Invalid document type", decodeBody(rr)["message"])
	s.Zero(s.stagedFiles())
	s.Zero(s.blob.count())
}

func (s *AcademicAPITestSuite) Test_UploadFile_RejectsOversizedImage() {
	content := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 2<<20)...)

	rr := s.upload("/api/academic/upload", nil, &formFile{name: "photo.png", contentType: "image/png", content: content})
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("File size should be less than 2.0 MiB", decodeBody(rr)["message"])
	s.Zero(s.stagedFiles())
	s.Zero(s.blob.count())
}

func (s *AcademicAPITestSuite) Test_UploadFile_ReturnsURL() {
	rr := s.upload("/api/academic/upload", nil, &formFile{name: "Photo.JPG", contentType: "image/jpeg", content: []byte("\xff\xd8\xff\xe0body")})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var resp UploadFileResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Contains(resp.URL, "academic_documents/")
	s.Zero(s.stagedFiles())
}

func (s *AcademicAPITestSuite) Test_Upload_WithoutFile() {
	rr := s.upload("/api/academic/upload", map[string]string{"note": "x"}, nil)
	s.Equal(http.StatusBadRequest, rr.Code)
	s.Equal("No file uploaded", decodeBody(rr)["message"])
}

func (s *AcademicAPITestSuite) Test_RequiresBearerToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/academic", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	s.Equal(http.StatusUnauthorized, rr.Code)

	s.token = "not-a-jwt"
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/academic", nil).Code)
}

func (s *AcademicAPITestSuite) Test_UnknownRoute() {
	rr := s.do(http.MethodGet, "/api/nope", nil)
	s.Equal(http.StatusNotFound, rr.Code)
	s.JSONEq(`{"message":"Route not found"}`, rr.Body.String())
}

func (s *AcademicAPITestSuite) Test_SecurityHeaders() {
	rr := s.do(http.MethodGet, "/api/health", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("strict-origin-when-cross-origin", rr.Header().Get("Referrer-Policy"))
	s.Equal("cross-origin", rr.Header().Get("Cross-Origin-Resource-Policy"))
	s.Equal("nosniff", rr.Header().Get("X-Content-Type-Options"))
	s.NotEmpty(rr.Header().Get(HeaderRequestID))
}

func (s *AcademicAPITestSuite) Test_RateLimit() {
	s.router = s.newRouter(2)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/health", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/health", nil).Code)

	rr := s.do(http.MethodGet, "/api/health", nil)
	s.Equal(http.StatusTooManyRequests, rr.Code)
	s.Equal("Too many requests from this IP, please try again later", decodeBody(rr)["message"])
	s.NotEmpty(rr.Header().Get("Retry-After"))
}
