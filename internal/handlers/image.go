package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aremuc/home-monitor-iot/internal/blob"
	"github.com/aremuc/home-monitor-iot/internal/ingest"
)

type uploadResponse struct {
	ImageID  int64    `json:"imageId"`
	Filename string   `json:"filename"`
	Tags     []string `json:"tags"`
}

func (h HandlerSet) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload: " + err.Error()})
		return
	}

	result, err := h.pipeline.Ingest(c.Request.Context(), ingest.Submission{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("ingestion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		ImageID:  result.ImageID,
		Filename: result.StoredName,
		Tags:     result.Tags,
	})
}

func (h HandlerSet) GetImage(c *gin.Context) {
	name := c.Param("filename")

	data, contentType, err := h.blobs.Get(c.Request.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, blob.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		case errors.Is(err, blob.ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image name"})
		default:
			h.log.Error().Err(err).Str("filename", name).Msg("blob read failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Data(http.StatusOK, contentType, data)
}
