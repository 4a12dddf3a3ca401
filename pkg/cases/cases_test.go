package cases

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"appealdesk/models"
	"appealdesk/pkg/conversation"
	"appealdesk/pkg/fields"
	"appealdesk/pkg/intake"

	"github.com/disintegration/imaging"
)

type memStore struct {
	nextID  uint
	cases   map[uint]models.Case
	uploads []models.Upload
}

func newMemStore() *memStore { return &memStore{cases: map[uint]models.Case{}} }

func (m *memStore) CreateCase(_ context.Context, c *models.Case) error {
	m.nextID++
	c.ID = m.nextID
	m.cases[c.ID] = *c
	return nil
}

func (m *memStore) SaveCase(_ context.Context, c *models.Case) error {
	m.cases[c.ID] = *c
	return nil
}

func (m *memStore) CreateUploads(_ context.Context, ups []models.Upload) error {
	m.uploads = append(m.uploads, ups...)
	return nil
}

type cannedText string

func (c cannedText) ExtractText(string) string { return string(c) }

var clock = time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)

func newService(t *testing.T, text string) (*Service, *memStore) {
	st := newMemStore()
	return &Service{
		Store:     st,
		Intake:    intake.New(cannedText(text), t.TempDir()),
		OutputDir: t.TempDir(),
		Now:       func() time.Time { return clock },
	}, st
}

func png(t *testing.T) []byte {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(30, 20, color.White), imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func send(t *testing.T, s *Service, c *models.Case, text string) *Outcome {
	t.Helper()
	out, err := s.Message(context.Background(), c, text)
	if err != nil {
		t.Fatalf("Message(%q): %v", text, err)
	}
	return out
}

func TestParkingCaseGeneratesLetter(t *testing.T) {
	svc, st := newService(t, "CITY OF SPRINGFIELD\nTICKET: AB123456\nDATE 03/14/2024\nFINE: $85.00")
	ctx := context.Background()
	open, err := svc.Open(ctx, nil, models.ChannelAPI, 0, "Full Name: Jo Doe")
	if err != nil {
		t.Fatal(err)
	}
	c := open.Case
	send(t, svc, c, "parking")

	out, res, err := svc.Scan(ctx, c, models.ChannelAPI, []intake.Document{{Name: "ticket.png", Data: png(t)}})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Fields["ticket_number"] != "AB123456" || res.Fields["amount"] != "$85.00" {
		t.Fatalf("unexpected fields %v", res.Fields)
	}
	if out.Turn.Session.State != conversation.StateConfirmScan {
		t.Fatalf("expected confirm_scan got %s", out.Turn.Session.State)
	}
	if len(st.uploads) != 1 || st.uploads[0].FieldsFound < 2 || *st.uploads[0].CaseID != c.ID {
		t.Fatalf("unexpected upload records %+v", st.uploads)
	}

	send(t, svc, c, "yes")
	for c.State == string(conversation.StateCollecting) {
		send(t, svc, c, "typed answer")
	}
	if c.State != string(conversation.StateReview) {
		t.Fatalf("expected review got %s", c.State)
	}
	out = send(t, svc, c, "generate")
	if out.Letter == nil || out.Letter.Ext != "pdf" {
		t.Fatalf("expected a pdf letter, got %+v", out.Letter)
	}
	if want := fmt.Sprintf("parking_dispute_%d_20240601_093000.pdf", c.ID); out.Letter.Name != want {
		t.Fatalf("letter name %s", out.Letter.Name)
	}
	if _, err := os.Stat(filepath.Join(svc.OutputDir, out.Letter.Name)); err != nil {
		t.Fatalf("letter not written: %v", err)
	}
	if c.LetterGeneratedAt == nil || st.cases[c.ID].State != string(conversation.StateComplete) {
		t.Fatalf("case not completed: %+v", st.cases[c.ID])
	}

	g, err := RenderLetter(c, "txt", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(g.Data), "Citation Number: AB123456") || !strings.Contains(string(g.Data), "From: Jo Doe") {
		t.Fatalf("text letter missing details:\n%s", g.Data)
	}
}

func TestGenerationFailureReturnsToReview(t *testing.T) {
	svc, _ := newService(t, "")
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	svc.OutputDir = filepath.Join(blocker, "sub")

	c := &models.Case{ID: 7}
	c.SetSession(conversation.Session{Kind: fields.Housing, State: conversation.StateReview, Answers: map[string]string{}})
	out := send(t, svc, c, "yes")
	if out.Letter != nil || c.State != string(conversation.StateReview) {
		t.Fatalf("failed generation should leave the case in review: %+v", c)
	}
}

func TestScanDecodeErrorKeepsState(t *testing.T) {
	svc, st := newService(t, "unused")
	c := &models.Case{ID: 3}
	c.SetSession(conversation.Session{Kind: fields.Housing, State: conversation.StateCollecting, Answers: map[string]string{}})
	out, _, err := svc.Scan(context.Background(), c, models.ChannelTelegram, []intake.Document{{Name: "a.heic", Data: []byte("nope")}})
	if err != nil {
		t.Fatalf("decode failure should not be an error: %v", err)
	}
	if out.Turn.Replies[0] != ImageErrorText || c.State != string(conversation.StateCollecting) {
		t.Fatalf("unexpected outcome %+v", out.Turn)
	}
	if len(st.uploads) != 1 || !st.uploads[0].Failed {
		t.Fatalf("failed upload should be recorded: %+v", st.uploads)
	}
}

func TestRestartOpensNewCase(t *testing.T) {
	svc, st := newService(t, "")
	c := &models.Case{ID: 0}
	_ = st.CreateCase(context.Background(), c)
	c.SetSession(conversation.Session{Kind: fields.Parking, State: conversation.StateComplete, Answers: map[string]string{"ticket_number": "X"}})

	out := send(t, svc, c, "restart")
	if out.Case.ID == c.ID || out.Case.State != string(conversation.StateSelection) {
		t.Fatalf("restart should open a fresh case: %+v", out.Case)
	}
	if len(st.cases) != 2 {
		t.Fatalf("expected 2 cases got %d", len(st.cases))
	}
}

func TestInvalidStateAnswersWithPrompt(t *testing.T) {
	svc, _ := newService(t, "")
	c := &models.Case{ID: 1, State: "bogus"}
	out := send(t, svc, c, "hello")
	if len(out.Turn.Replies) != 1 || out.Turn.Replies[0] != conversation.WelcomeText {
		t.Fatalf("unexpected replies %q", out.Turn.Replies)
	}
}

func TestUploadRecordsSkipsIgnored(t *testing.T) {
	res := intake.Result{Kind: fields.Housing, Outcomes: []intake.Outcome{
		{Index: 0, Name: "a.png", Fields: fields.FieldMap{"rent_amount": "$900", "dates": ""}},
		{Index: 1, Name: "b.png", Skipped: true},
	}}
	ups := UploadRecords(nil, nil, models.SourceInbox, nil, res)
	if len(ups) != 1 || ups[0].FieldsFound != 1 || ups[0].Source != "inbox" {
		t.Fatalf("unexpected records %+v", ups)
	}
}

func TestLettersInSameSecondDoNotCollide(t *testing.T) {
	svc, _ := newService(t, "")
	sess := conversation.Session{Kind: fields.Parking, Answers: map[string]string{"ticket_number": "AB123456"}}
	first, err := svc.generate(1, sess)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	sess.Answers = map[string]string{"ticket_number": "ZZ999999"}
	second, err := svc.generate(2, sess)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.Path == second.Path {
		t.Fatalf("both letters written to %s", first.Path)
	}
	for _, g := range []*Generated{first, second} {
		data, err := os.ReadFile(g.Path)
		if err != nil {
			t.Fatalf("letter missing: %v", err)
		}
		if !bytes.Equal(data, g.Data) {
			t.Fatalf("%s was overwritten", g.Name)
		}
	}
}
