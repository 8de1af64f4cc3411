package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/khoahotran/academic-records/pkg/apperror"
	"github.com/khoahotran/academic-records/pkg/logger"
)

func errorRouter(exposeCause bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorMiddleware(logger.NewNop(), exposeCause))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/plain", func(c *gin.Context) { c.Error(errors.New("db is down")) })
	r.GET("/missing", func(c *gin.Context) { c.Error(apperror.NewNotFound("Academic details", "x")) })
	return r
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestErrorMiddleware_RecoversPanics(t *testing.T) {
	rr := serve(errorRouter(false), "/panic")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody(rr)
	assert.Equal(t, "An internal server error occurred", body["message"])
	assert.NotContains(t, body, "cause")
}

func TestErrorMiddleware_CauseOnlyOutsideProduction(t *testing.T) {
	hidden := decodeBody(serve(errorRouter(false), "/plain"))
	assert.NotContains(t, hidden, "cause")

	shown := decodeBody(serve(errorRouter(true), "/plain"))
	assert.Equal(t, "db is down", shown["cause"])
}

func TestErrorMiddleware_MapsAppErrors(t *testing.T) {
	rr := serve(errorRouter(false), "/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Academic details not found", decodeBody(rr)["message"])
}
