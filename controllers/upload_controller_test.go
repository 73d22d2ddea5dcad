package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyuan-youth/civic-server/config"
)

func uploadRouter() *gin.Engine {
	r := gin.New()
	r.POST("/api/kb/documents", UploadKBDocument)
	r.GET("/api/kb/check", CheckKB)
	return r
}

func useTempUploadDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := config.App.UploadDir
	config.App.UploadDir = dir
	t.Cleanup(func() { config.App.UploadDir = prev })
	return dir
}

func postMultipartFile(t *testing.T, r *gin.Engine, field, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/kb/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadKBDocumentStoresFile(t *testing.T) {
	setupTestDB(t)
	useTempUploadDir(t)
	KB = nil

	w := postMultipartFile(t, uploadRouter(), "file", "faq.md", "# 常見問答\n青創貸款最高100萬元")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Filename string `json:"filename"`
		Path     string `json:"path"`
		Indexed  bool   `json:"indexed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "faq.md", resp.Filename)
	// Stored but not indexed while the chat backend is unavailable.
	assert.False(t, resp.Indexed)

	stored, err := os.ReadFile(resp.Path)
	require.NoError(t, err)
	assert.Contains(t, string(stored), "青創貸款最高100萬元")
}

func TestUploadKBDocumentRequiresFile(t *testing.T) {
	setupTestDB(t)
	useTempUploadDir(t)
	KB = nil

	// Wrong field name means no "file" part.
	w := postMultipartFile(t, uploadRouter(), "document", "faq.md", "text")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckKBValidation(t *testing.T) {
	setupTestDB(t)
	KB = nil
	r := uploadRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kb/check", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kb/check?q=%20%20", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/kb/check?q=hello", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
