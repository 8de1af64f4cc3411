package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	academicUC "github.com/khoahotran/academic-records/internal/application/usecase/academic"
	"github.com/khoahotran/academic-records/pkg/apperror"
	"github.com/khoahotran/academic-records/pkg/logger"
)

type AcademicHandler struct {
	upsertAcademicUseCase        *academicUC.UpsertAcademicUseCase
	getAcademicUseCase           *academicUC.GetAcademicUseCase
	updateAcademicUseCase        *academicUC.UpdateAcademicUseCase
	createAcademicDetailsUseCase *academicUC.CreateAcademicDetailsUseCase
	logger                       logger.Logger
}

func NewAcademicHandler(
	upsertUC *academicUC.UpsertAcademicUseCase,
	getUC *academicUC.GetAcademicUseCase,
	updateUC *academicUC.UpdateAcademicUseCase,
	createDetailsUC *academicUC.CreateAcademicDetailsUseCase,
	log logger.Logger,
) *AcademicHandler {
	return &AcademicHandler{
		upsertAcademicUseCase:        upsertUC,
		getAcademicUseCase:           getUC,
		updateAcademicUseCase:        updateUC,
		createAcademicDetailsUseCase: createDetailsUC,
		logger:                       log,
	}
}

func (h *AcademicHandler) UpsertAcademic(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}
	var req AcademicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	output, err := h.upsertAcademicUseCase.Execute(c.Request.Context(), academicUC.UpsertAcademicInput{
		UserID: userID,
		Patch:  req.ToPatch(),
	})
	if err != nil {
		c.Error(err)
		return
	}

	if output.Created {
		c.JSON(http.StatusCreated, AcademicResponse{Success: true, Message: "Academic details created successfully", Academic: output.Record})
		return
	}
	c.JSON(http.StatusOK, AcademicResponse{Success: true, Message: "Academic details updated successfully", Academic: output.Record})
}

func (h *AcademicHandler) GetAcademic(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	rec, err := h.getAcademicUseCase.Execute(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *AcademicHandler) UpdateAcademic(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}
	var req AcademicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	rec, err := h.updateAcademicUseCase.Execute(c.Request.Context(), academicUC.UpdateAcademicInput{
		UserID: userID,
		Patch:  req.ToPatch(),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, AcademicResponse{Success: true, Message: "Academic details updated successfully", Academic: rec})
}

func (h *AcademicHandler) CreateAcademicDetails(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}
	var req CreateAcademicDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	rec, err := h.createAcademicDetailsUseCase.Execute(c.Request.Context(), academicUC.CreateAcademicDetailsInput{
		UserID:         userID,
		Qualifications: req.Qualifications,
		Experience:     req.Experience,
		Publications:   req.Publications,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, AcademicResponse{Success: true, Message: "Academic details created successfully", Academic: rec})
}
