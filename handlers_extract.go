package main

import (
	"errors"
	"log"
	"net/http"

	"appealdesk/models"
	"appealdesk/pkg/cases"
	"appealdesk/pkg/fields"
	"appealdesk/pkg/ocr"

	"github.com/gin-gonic/gin"
)

// extractHandler runs the OCR pipeline without a conversation. Parking reads
// the first file; housing merges up to the configured number of files.
func extractHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	kind, ok := fields.ParseKind(c.Param("kind"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be parking or housing"})
		return
	}
	docs, ok := readDocuments(c)
	if !ok {
		return
	}
	res, err := processor.Batch(kind, docs)
	uid := user.ID
	store := cases.GormStore{DB: db}
	if dbErr := store.CreateUploads(c.Request.Context(), cases.UploadRecords(&uid, nil, models.ChannelAPI, docs, res)); dbErr != nil {
		log.Printf("WARN extract upload records: %v", dbErr)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ocr.ErrImageDecode) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error(), "documents": res.Outcomes})
		return
	}
	log.Printf("EXTRACT %s user=%s docs=%d found=%d", kind, user.Username, len(docs), res.Fields.Found())
	c.JSON(http.StatusOK, res)
}

// previewHandler returns a JPEG thumbnail of the uploaded image.
func previewHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	data, err := readPart(fh, cfg.MaxUploadBytes())
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	jpg, err := ocr.PreviewBytes(fh.Filename, data, cfg.PreviewMaxWidth, cfg.PreviewMaxHeight)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/jpeg", jpg)
}
