package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBodyLimitedRouter echoes the body it read, or replies 413 if the
// reader gave up.
func newBodyLimitedRouter(limit int64, reached *bool) *gin.Engine {
	r := gin.New()
	r.Use(MaxBodySize(limit))
	r.POST("/api/v1/admin/vault/import", func(c *gin.Context) {
		if reached != nil {
			*reached = true
		}
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too large")
			return
		}
		c.String(http.StatusOK, string(b))
	})
	r.GET("/api/v1/products", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestMaxBodySize_Allowed(t *testing.T) {
	r := newBodyLimitedRouter(1024, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/vault/import", strings.NewReader("PSN-AAAA-BBBB"))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PSN-AAAA-BBBB", w.Body.String())
}

func TestMaxBodySize_DeclaredLengthRejectedEarly(t *testing.T) {
	reached := false
	r := newBodyLimitedRouter(16, &reached)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/vault/import", bytes.NewReader([]byte(strings.Repeat("A", 100))))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, reached, "handler must not run")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VAL_002", body["error_code"])
}

func TestMaxBodySize_ChunkedBodyCutOff(t *testing.T) {
	reached := false
	r := newBodyLimitedRouter(16, &reached)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/vault/import", strings.NewReader(strings.Repeat("A", 100)))
	req.ContentLength = -1
	r.ServeHTTP(w, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestMaxBodySize_NoBody(t *testing.T) {
	r := newBodyLimitedRouter(1024, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMaxBodySize_ExactLimit(t *testing.T) {
	r := newBodyLimitedRouter(5, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/vault/import", bytes.NewReader([]byte("12345")))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String())
}
