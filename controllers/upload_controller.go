package controllers

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/gemini"
	"github.com/taoyuan-youth/civic-server/utils"
)

// KB is the service used to index uploaded knowledge-base documents. nil when
// Gemini is not configured; uploads are then stored but not indexed.
var KB *gemini.Service

// UploadKBDocument accepts a multipart "file", stores it under the upload dir,
// mirrors it to Supabase when configured and indexes it into the RAG store.
func UploadKBDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	path, err := utils.SaveUpload(fh, config.App.UploadDir)
	if err != nil {
		log.WithError(err).Error("saving upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store file"})
		return
	}

	result := gin.H{
		"filename": fh.Filename,
		"path":     path,
		"indexed":  false,
	}

	if config.App.SupabaseURL != "" && config.App.SupabaseKey != "" {
		contentType := mime.TypeByExtension(filepath.Ext(fh.Filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		publicURL, err := utils.UploadToSupabase(config.App.SupabaseURL, config.App.SupabaseKey, path, contentType)
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("supabase mirror failed")
		} else {
			result["public_url"] = publicURL
		}
	}

	if KB == nil {
		c.JSON(http.StatusOK, result)
		return
	}

	if err := KB.UploadDocument(c.Request.Context(), path); err != nil {
		log.WithError(err).WithField("file", path).Error("RAG indexing failed")
		result["error"] = "stored but not indexed"
		c.JSON(http.StatusOK, result)
		return
	}

	result["indexed"] = true
	result["store"] = KB.StoreName()
	c.JSON(http.StatusOK, result)
}

// CheckKB answers one question non-streamed so operators can verify the store
// retrieves the freshly indexed documents.
func CheckKB(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	if KB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat backend unavailable"})
		return
	}

	answer, sources, err := KB.Answer(c.Request.Context(), query, nil)
	if err != nil {
		log.WithError(err).Error("KB check failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"answer":  answer,
		"sources": sources,
		"store":   KB.StoreName(),
	})
}
