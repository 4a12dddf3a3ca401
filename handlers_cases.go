package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"appealdesk/models"
	"appealdesk/pkg/cases"
	"appealdesk/pkg/conversation"
	"appealdesk/pkg/export"
	"appealdesk/pkg/intake"
	"appealdesk/pkg/letter"

	"github.com/gin-gonic/gin"
)

var errTooLarge = errors.New("file too large")

// caseResponse is the common reply shape for case endpoints.
func caseResponse(out *cases.Outcome) gin.H {
	h := gin.H{
		"case_id": out.Case.ID,
		"kind":    out.Case.Kind,
		"state":   out.Case.State,
		"replies": out.Turn.Replies,
	}
	if out.Letter != nil {
		h["letter_url"] = fmt.Sprintf("/cases/%d/letter?format=%s", out.Case.ID, out.Letter.Ext)
		h["letter_file"] = out.Letter.Name
	}
	return h
}

// loadCase fetches :id and enforces ownership (admin sees all).
func loadCase(c *gin.Context, user *models.User) (*models.Case, bool) {
	var cs models.Case
	if err := db.WithContext(c.Request.Context()).First(&cs, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return nil, false
	}
	if !isAdmin(c) && (cs.UserID == nil || *cs.UserID != user.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return &cs, true
}

// createCaseHandler opens a new case. An optional kind answers the selection step.
func createCaseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Kind string `json:"kind"`
	}
	_ = c.ShouldBindJSON(&req)

	uid := user.ID
	out, err := caseSvc.Open(c.Request.Context(), &uid, models.ChannelAPI, 0, profileContact(user.ID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create case"})
		return
	}
	if req.Kind != "" {
		replies := out.Turn.Replies
		out, err = caseSvc.Message(c.Request.Context(), out.Case, req.Kind)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start case"})
			return
		}
		out.Turn.Replies = append(replies, out.Turn.Replies...)
	}
	log.Printf("NEW case id=%d user=%s kind=%s", out.Case.ID, user.Username, out.Case.Kind)
	c.JSON(http.StatusOK, caseResponse(out))
}

func listCasesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	items, err := visibleCases(c, user, 200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func visibleCases(c *gin.Context, user *models.User, limit int) ([]models.Case, error) {
	var items []models.Case
	q := db.WithContext(c.Request.Context()).Model(&models.Case{})
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if v := c.Query("kind"); v != "" {
		q = q.Where("kind = ?", v)
	}
	if v := c.Query("state"); v != "" {
		q = q.Where("state = ?", v)
	}
	err := q.Order("id desc").Limit(limit).Find(&items).Error
	return items, err
}

func getCaseHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cs, ok := loadCase(c, user)
	if !ok {
		return
	}
	sess := cs.Session()
	c.JSON(http.StatusOK, gin.H{
		"case":   cs,
		"prompt": conversation.Prompt(sess),
		"review": conversation.Review(sess),
	})
}

func caseMessageHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cs, ok := loadCase(c, user)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := caseSvc.Message(c.Request.Context(), cs, req.Text)
	if err != nil {
		log.Printf("ERROR case %d message: %v", cs.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}
	c.JSON(http.StatusOK, caseResponse(out))
}

// caseUploadHandler scans multipart "files" into the case's conversation.
func caseUploadHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cs, ok := loadCase(c, user)
	if !ok {
		return
	}
	docs, ok := readDocuments(c)
	if !ok {
		return
	}
	out, res, err := caseSvc.Scan(c.Request.Context(), cs, models.ChannelAPI, docs)
	if err != nil {
		log.Printf("ERROR case %d scan: %v", cs.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}
	h := caseResponse(out)
	h["fields"] = res.Fields
	h["documents"] = res.Outcomes
	c.JSON(http.StatusOK, h)
}

func caseLetterHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	cs, ok := loadCase(c, user)
	if !ok {
		return
	}
	if cs.LetterGeneratedAt == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "letter not generated yet"})
		return
	}
	format := strings.ToLower(c.DefaultQuery("format", "pdf"))
	if format != "pdf" && format != "txt" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be pdf or txt"})
		return
	}
	gen, err := cases.RenderLetter(cs, format, time.Now())
	if err != nil {
		if errors.Is(err, letter.ErrUnknownKind) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render letter"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, gen.Name))
	c.Data(http.StatusOK, letter.ContentType(gen.Ext), gen.Data)
}

func exportCasesHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	items, err := visibleCases(c, user, 5000)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var uploads []models.Upload
	q := db.WithContext(c.Request.Context()).Model(&models.Upload{})
	if !isAdmin(c) {
		q = q.Where("user_id = ?", user.ID)
	}
	if err := q.Order("id desc").Limit(5000).Find(&uploads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	data, err := export.Workbook(items, uploads)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	name := fmt.Sprintf("cases_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// readDocuments collects multipart "files" (or a single "file") into memory,
// rejecting anything over the configured size.
func readDocuments(c *gin.Context) ([]intake.Document, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return nil, false
	}
	headers := append(form.File["files"], form.File["file"]...)
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return nil, false
	}
	docs := make([]intake.Document, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh, cfg.MaxUploadBytes())
		if errors.Is(err, errTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("%s too large (max %dMB)", fh.Filename, cfg.MaxUploadMB)})
			return nil, false
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read " + fh.Filename})
			return nil, false
		}
		docs = append(docs, intake.Document{Name: fh.Filename, Data: data})
	}
	return docs, true
}

func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if limit > 0 && fh.Size > limit {
		return nil, errTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
