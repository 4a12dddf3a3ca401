// Package cases runs dispute conversations against persisted Case rows. The
// HTTP API and the Telegram bot both drive it.
package cases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"appealdesk/models"
	"appealdesk/pkg/conversation"
	"appealdesk/pkg/intake"
	"appealdesk/pkg/letter"
	"appealdesk/pkg/ocr"
)

// ImageErrorText is sent when no uploaded image could be decoded.
const ImageErrorText = "Sorry, I could not process that image. Please enter the information manually."

// Service ties the conversation, intake and letter packages to a Store.
type Service struct {
	Store     Store
	Intake    *intake.Processor
	OutputDir string
	Now       func() time.Time
}

// Outcome is what a transport needs to answer one input.
type Outcome struct {
	Case   *models.Case
	Turn   conversation.Turn
	Letter *Generated
}

// Generated is a rendered letter written to OutputDir.
type Generated struct {
	Name string
	Ext  string
	Path string
	Data []byte
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Open creates a new case in selection and returns the welcome turn.
func (s *Service) Open(ctx context.Context, userID *uint, channel string, chatID int64, contact string) (*Outcome, error) {
	turn := conversation.Start(contact)
	c := &models.Case{UserID: userID, Channel: channel, ChatID: chatID}
	c.SetSession(turn.Session)
	if err := s.Store.CreateCase(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	return &Outcome{Case: c, Turn: turn}, nil
}

// Message feeds one text input to the case's conversation.
func (s *Service) Message(ctx context.Context, c *models.Case, text string) (*Outcome, error) {
	prev := c.Session()
	turn, err := conversation.Handle(prev, text)
	if err != nil {
		log.Printf("WARN case %d: %v", c.ID, err)
		return &Outcome{Case: c, Turn: conversation.Turn{Session: prev, Replies: []string{conversation.Prompt(prev)}}}, nil
	}
	return s.apply(ctx, c, prev, turn)
}

// Restart resets the conversation. A case that already chose a kind is kept
// as history and a fresh case is opened for the same owner.
func (s *Service) Restart(ctx context.Context, c *models.Case) (*Outcome, error) {
	prev := c.Session()
	turn, err := conversation.Restart(prev)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, c, prev, turn)
}

// Scan runs OCR over docs and offers the extracted fields to the
// conversation. Each processed document is recorded as an Upload.
func (s *Service) Scan(ctx context.Context, c *models.Case, source string, docs []intake.Document) (*Outcome, intake.Result, error) {
	sess := c.Session()
	if sess.State != conversation.StateCollecting {
		turn, err := conversation.HandleScan(sess, nil)
		if err != nil {
			return nil, intake.Result{}, err
		}
		return &Outcome{Case: c, Turn: turn}, intake.Result{}, nil
	}

	res, scanErr := s.Intake.Batch(sess.Kind, docs)
	caseID := c.ID
	if err := s.Store.CreateUploads(ctx, UploadRecords(c.UserID, &caseID, source, docs, res)); err != nil {
		log.Printf("WARN case %d upload records: %v", c.ID, err)
	}
	if scanErr != nil {
		if !errors.Is(scanErr, ocr.ErrImageDecode) {
			return nil, res, scanErr
		}
		turn := conversation.Turn{Session: sess, Replies: []string{ImageErrorText, conversation.Prompt(sess)}}
		return &Outcome{Case: c, Turn: turn}, res, nil
	}

	turn, err := conversation.HandleScan(sess, res.Fields)
	if err != nil {
		return nil, res, err
	}
	out, err := s.apply(ctx, c, sess, turn)
	return out, res, err
}

func (s *Service) apply(ctx context.Context, c *models.Case, prev conversation.Session, turn conversation.Turn) (*Outcome, error) {
	out := &Outcome{Case: c, Turn: turn}

	if turn.Session.State == conversation.StateSelection && prev.Kind != "" && c.ID != 0 {
		next := &models.Case{UserID: c.UserID, Channel: c.Channel, ChatID: c.ChatID}
		next.SetSession(turn.Session)
		if err := s.Store.CreateCase(ctx, next); err != nil {
			return nil, fmt.Errorf("create case: %w", err)
		}
		out.Case = next
		return out, nil
	}

	if turn.Action == conversation.ActionGenerate {
		gen, err := s.generate(c.ID, turn.Session)
		if err != nil {
			log.Printf("ERROR case %d letter: %v", c.ID, err)
			failed, ferr := conversation.GenerationFailed(turn.Session, err)
			if ferr != nil {
				return nil, ferr
			}
			turn = failed
		} else {
			at := s.now()
			c.LetterFile = gen.Name
			c.LetterGeneratedAt = &at
			out.Letter = gen
			turn.Replies = append(turn.Replies, conversation.Generated(turn.Session).Replies...)
		}
		out.Turn = turn
	}

	c.SetSession(turn.Session)
	if err := s.Store.SaveCase(ctx, c); err != nil {
		return nil, fmt.Errorf("save case %d: %w", c.ID, err)
	}
	return out, nil
}

// generate composes, renders and writes the letter for case caseID.
func (s *Service) generate(caseID uint, sess conversation.Session) (*Generated, error) {
	now := s.now()
	l, err := letter.Compose(sess.Kind, sess.Answers, now)
	if err != nil {
		return nil, err
	}
	data, ext, err := l.Render("pdf")
	if err != nil {
		return nil, err
	}
	dir := s.OutputDir
	if dir == "" {
		dir = "output"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	name := letter.FileName(sess.Kind, caseID, now, ext)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write letter: %w", err)
	}
	return &Generated{Name: name, Ext: ext, Path: path, Data: data}, nil
}

// RenderLetter renders the case's letter on demand without touching state.
func RenderLetter(c *models.Case, format string, now time.Time) (*Generated, error) {
	sess := c.Session()
	if sess.Kind == "" {
		return nil, fmt.Errorf("%w: case has no dispute kind yet", letter.ErrUnknownKind)
	}
	if c.LetterGeneratedAt != nil {
		now = *c.LetterGeneratedAt
	}
	l, err := letter.Compose(sess.Kind, sess.Answers, now)
	if err != nil {
		return nil, err
	}
	data, ext, err := l.Render(format)
	if err != nil {
		return nil, err
	}
	return &Generated{Name: letter.FileName(sess.Kind, c.ID, now, ext), Ext: ext, Data: data}, nil
}

// UploadRecords builds one Upload row per processed (non-skipped) document.
func UploadRecords(userID, caseID *uint, source string, docs []intake.Document, res intake.Result) []models.Upload {
	var ups []models.Upload
	for _, o := range res.Outcomes {
		if o.Skipped {
			continue
		}
		up := models.Upload{
			UserID:   userID,
			CaseID:   caseID,
			Source:   source,
			FileName: o.Name,
			Kind:     string(res.Kind),
		}
		if o.Index < len(docs) {
			up.ContentType = http.DetectContentType(docs[o.Index].Data)
		}
		if o.Err != nil {
			up.Failed = true
			up.FailedReason = trimReason(o.Error)
		} else {
			up.Fields = o.Fields
			up.FieldsFound = o.Fields.Found()
		}
		ups = append(ups, up)
	}
	return ups
}

func trimReason(s string) string {
	if len(s) > 255 {
		return s[:255]
	}
	return s
}
