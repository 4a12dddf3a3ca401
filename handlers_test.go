package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"testing"

	"appealdesk/pkg/config"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func previewServer() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg = config.Default()
	r := gin.New()
	r.POST("/preview", previewHandler)
	return r
}

func TestPreviewHandler(t *testing.T) {
	r := previewServer()
	var img bytes.Buffer
	if err := imaging.Encode(&img, imaging.New(1000, 500, color.Black), imaging.PNG); err != nil {
		t.Fatal(err)
	}
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "notice.png")
	_, _ = w.Write(img.Bytes())
	_ = mw.Close()

	resp := performRequest(r, http.MethodPost, "/preview", buf, "", mw.FormDataContentType())
	if resp.Code != http.StatusOK || resp.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("preview status=%d type=%s body=%s", resp.Code, resp.Header().Get("Content-Type"), resp.Body.String())
	}
	out, _, err := image.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("preview size %v", b)
	}
}

func TestPreviewHandlerRejectsNonImage(t *testing.T) {
	r := previewServer()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, _ := mw.CreateFormFile("file", "notes.txt")
	_, _ = w.Write([]byte("hello"))
	_ = mw.Close()
	resp := performRequest(r, http.MethodPost, "/preview", buf, "", mw.FormDataContentType())
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	resp = performRequest(r, http.MethodPost, "/preview", bytes.NewBufferString("x"), "", "text/plain")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing file got %d", resp.Code)
	}
}

func TestLoadProfileReportsDatabaseErrors(t *testing.T) {
	// nothing listens on port 1, so every query fails with a connection error
	dsn := "host=127.0.0.1 port=1 user=appealdesk dbname=appealdesk sslmode=disable connect_timeout=2"
	tx, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	p, err := loadProfile(tx, 7)
	if err == nil {
		t.Fatalf("expected a database error")
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("connection failure reported as not found: %v", err)
	}
	if p.ID != 0 || p.UserID != 0 {
		t.Fatalf("expected zero profile on error, got %+v", p)
	}
}
