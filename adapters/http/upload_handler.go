package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	uploadUC "github.com/khoahotran/academic-records/internal/application/usecase/upload"
	"github.com/khoahotran/academic-records/pkg/apperror"
	"github.com/khoahotran/academic-records/pkg/logger"
)

const formFieldFile = "file"

type UploadHandler struct {
	uploadDocumentUseCase *uploadUC.UploadDocumentUseCase
	uploadFileUseCase     *uploadUC.UploadFileUseCase
	logger                logger.Logger
}

func NewUploadHandler(docUC *uploadUC.UploadDocumentUseCase, fileUC *uploadUC.UploadFileUseCase, log logger.Logger) *UploadHandler {
	return &UploadHandler{
		uploadDocumentUseCase: docUC,
		uploadFileUseCase:     fileUC,
		logger:                log,
	}
}

// openFormFile returns the "file" part. The caller closes it.
func openFormFile(c *gin.Context) (uploadUC.FileInput, func(), error) {
	fh, err := c.FormFile(formFieldFile)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return uploadUC.FileInput{}, nil, apperror.NewAppError(apperror.ErrInvalidInput, "Request body too large", err.Error(), err)
		}
		return uploadUC.FileInput{}, nil, apperror.NewAppError(apperror.ErrInvalidInput, "No file uploaded", "multipart field 'file' is required", err)
	}

	f, err := fh.Open()
	if err != nil {
		return uploadUC.FileInput{}, nil, apperror.NewInternal("cannot open uploaded part", err)
	}
	return uploadUC.FileInput{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}, func() { _ = f.Close() }, nil
}

func (h *UploadHandler) UploadDocument(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	file, closeFile, err := openFormFile(c)
	if err != nil {
		c.Error(err)
		return
	}
	defer closeFile()

	output, err := h.uploadDocumentUseCase.Execute(c.Request.Context(), uploadUC.UploadDocumentInput{
		UserID:       userID,
		File:         file,
		DocumentType: c.PostForm("documentType"),
		Index:        c.PostForm("index"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, UploadDocumentResponse{
		Success:  true,
		Message:  "Document uploaded successfully",
		URL:      output.URL,
		Academic: output.Record,
	})
}

func (h *UploadHandler) UploadFile(c *gin.Context) {
	file, closeFile, err := openFormFile(c)
	if err != nil {
		c.Error(err)
		return
	}
	defer closeFile()

	output, err := h.uploadFileUseCase.Execute(c.Request.Context(), file)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, UploadFileResponse{Success: true, Message: "File uploaded successfully", URL: output.URL})
}
