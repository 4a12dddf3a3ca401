package conversation

import (
	"fmt"
	"strings"

	"appealdesk/pkg/fields"
)

// Session is the persisted interview state for one user.
type Session struct {
	Kind    fields.Kind       `json:"kind,omitempty"`
	State   State             `json:"state"`
	Step    int               `json:"step"`
	Answers map[string]string `json:"answers,omitempty"`
	// Scanned holds OCR fields waiting for the user to confirm them.
	Scanned fields.FieldMap `json:"scanned,omitempty"`
	// Contact is the saved profile text used to skip the contact question.
	Contact string `json:"contact,omitempty"`
}

// Action tells the transport what to do after sending the replies.
type Action string

const (
	ActionNone     Action = ""
	ActionGenerate Action = "generate_letter"
	ActionEnd      Action = "end"
)

// Turn is the outcome of handling one input.
type Turn struct {
	Session Session  `json:"session"`
	Replies []string `json:"replies"`
	Action  Action   `json:"action,omitempty"`
}

const (
	WelcomeText = "Welcome to the dispute letter assistant.\n\nI can help you write a formal letter for:\n- a parking ticket you want to dispute\n- a housing problem with your landlord\n\nWhich one do you need? Reply \"parking\" or \"housing\"."
	chooseText  = "Please reply \"parking\" or \"housing\" so I know which letter to prepare."
	emptyText   = "I didn't catch that. Please type an answer to continue."
	reviewAsk   = "Reply \"yes\" to generate your letter or \"no\" to go through the questions again."
	scanAsk     = "Reply \"yes\" to use these details or \"no\" to keep typing them yourself."
	scanNone    = "I couldn't read any details from that photo. Let's continue by typing them in."
	generating  = "Generating your dispute letter..."
	doneText    = "Your letter is ready. Type \"restart\" to start a new dispute or \"quit\" to finish."
	closedText  = "Good luck with your dispute! Type \"restart\" any time to start again."
	closedHint  = "This conversation is finished. Type \"restart\" to start a new dispute."
	scanLater   = "Photos can only be read while I'm asking questions. Pick a dispute type first."
)

var (
	yesWords = []string{"yes", "y", "generate", "create", "ok", "use"}
	noWords  = []string{"no", "n", "edit", "modify", "skip", "discard"}
)

// New returns a fresh session in selection with the given profile contact.
func New(contact string) Session {
	return Session{State: StateSelection, Answers: map[string]string{}, Contact: strings.TrimSpace(contact)}
}

// Start opens a conversation and greets the user.
func Start(contact string) Turn {
	return Turn{Session: New(contact), Replies: []string{WelcomeText}}
}

// Restart drops everything except the saved contact and greets again.
func Restart(s Session) (Turn, error) {
	if _, err := Next(s.State, EventRestart); err != nil {
		return Turn{Session: s}, err
	}
	return Start(s.Contact), nil
}

// Clone returns a deep copy so callers may keep the previous value.
func (s Session) Clone() Session {
	out := s
	out.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	if s.Scanned != nil {
		out.Scanned = make(fields.FieldMap, len(s.Scanned))
		for k, v := range s.Scanned {
			out.Scanned[k] = v
		}
	}
	return out
}

// Handle consumes one text message.
func Handle(in Session, input string) (Turn, error) {
	s := in.Clone()
	if !s.State.Valid() {
		return Turn{Session: in}, fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, s.State)
	}
	text := strings.TrimSpace(input)
	word := strings.ToLower(text)

	switch s.State {
	case StateSelection:
		kind, ok := chooseKind(word)
		if !ok {
			return Turn{Session: s, Replies: []string{chooseText}}, nil
		}
		return choose(s, kind)

	case StateCollecting:
		if text == "" {
			return reask(s, emptyText)
		}
		return answer(s, text)

	case StateConfirmScan:
		switch {
		case oneOf(word, yesWords):
			return resolveScan(s, EventAcceptScan)
		case oneOf(word, noWords):
			return resolveScan(s, EventRejectScan)
		}
		return Turn{Session: s, Replies: []string{scanAsk}}, nil

	case StateReview:
		switch {
		case oneOf(word, yesWords):
			if err := s.fire(EventApprove); err != nil {
				return Turn{Session: in}, err
			}
			return Turn{Session: s, Replies: []string{generating}, Action: ActionGenerate}, nil
		case oneOf(word, noWords):
			if err := s.fire(EventRevise); err != nil {
				return Turn{Session: in}, err
			}
			s.Answers = map[string]string{}
			if script, ok := ScriptFor(s.Kind); ok && s.Contact != "" {
				s.Answers[script.ContactField] = s.Contact
			}
			s.Scanned = nil
			s.Step = 0
			return reask(s, "Let's go through the questions again.")
		}
		return Turn{Session: s, Replies: []string{reviewAsk}}, nil

	case StateComplete:
		switch {
		case strings.Contains(word, "restart"):
			return Restart(s)
		case strings.Contains(word, "quit"):
			if err := s.fire(EventQuit); err != nil {
				return Turn{Session: in}, err
			}
			return Turn{Session: s, Replies: []string{closedText}, Action: ActionEnd}, nil
		}
		return Turn{Session: s, Replies: []string{doneText}}, nil

	case StateClosed:
		if strings.Contains(word, "restart") {
			return Restart(s)
		}
		return Turn{Session: s, Replies: []string{closedHint}}, nil
	}
	return Turn{Session: in}, fmt.Errorf("%w: %s", ErrInvalidTransition, s.State)
}

// HandleScan offers OCR-extracted fields for confirmation. Only meaningful
// while collecting answers; an empty map just re-asks the current question.
func HandleScan(in Session, fm fields.FieldMap) (Turn, error) {
	s := in.Clone()
	if s.State != StateCollecting {
		if s.State == StateSelection {
			return Turn{Session: s, Replies: []string{scanLater}}, nil
		}
		return Turn{Session: s, Replies: []string{"I can't use a photo right now."}}, nil
	}
	script, ok := ScriptFor(s.Kind)
	if !ok {
		return Turn{Session: in}, fmt.Errorf("%w: no script for %q", ErrInvalidTransition, s.Kind)
	}
	if fm.Empty() {
		return reask(s, scanNone)
	}
	if err := s.fire(EventScan); err != nil {
		return Turn{Session: in}, err
	}
	s.Scanned = fm
	return Turn{Session: s, Replies: []string{describeScan(script, fm), scanAsk}}, nil
}

// Generated is the reply after the letter was delivered.
func Generated(s Session) Turn {
	return Turn{Session: s, Replies: []string{doneText}}
}

// GenerationFailed returns a completed session to review so the user can retry.
func GenerationFailed(in Session, cause error) (Turn, error) {
	s := in.Clone()
	if err := s.fire(EventGenerationFailed); err != nil {
		return Turn{Session: in}, err
	}
	msg := "Sorry, I couldn't generate your letter."
	if cause != nil {
		msg += " (" + cause.Error() + ")"
	}
	return Turn{Session: s, Replies: []string{msg, reviewAsk}}, nil
}

// Review renders the answer summary for s.
func Review(s Session) string {
	script, ok := ScriptFor(s.Kind)
	if !ok {
		return ""
	}
	return script.review(s.Answers)
}

// Current returns the question being asked, if any.
func Current(s Session) (Question, bool) {
	script, ok := ScriptFor(s.Kind)
	if !ok || s.State != StateCollecting || s.Step < 0 || s.Step >= len(script.Questions) {
		return Question{}, false
	}
	return script.Questions[s.Step], true
}

func (s *Session) fire(ev Event) error {
	to, err := Next(s.State, ev)
	if err != nil {
		return err
	}
	s.State = to
	return nil
}

func choose(s Session, kind fields.Kind) (Turn, error) {
	script, _ := ScriptFor(kind)
	if err := s.fire(EventChoose); err != nil {
		return Turn{Session: s}, err
	}
	s.Kind = kind
	s.Answers = map[string]string{}
	if s.Contact != "" {
		s.Answers[script.ContactField] = s.Contact
	}
	return reask(s, script.Intro)
}

func answer(s Session, text string) (Turn, error) {
	q, ok := Current(s)
	if !ok {
		return Turn{Session: s}, fmt.Errorf("%w: no question at step %d", ErrInvalidTransition, s.Step)
	}
	if err := s.fire(EventAnswer); err != nil {
		return Turn{Session: s}, err
	}
	s.Answers[q.Field] = text
	return advance(s, nil)
}

func resolveScan(s Session, ev Event) (Turn, error) {
	if err := s.fire(ev); err != nil {
		return Turn{Session: s}, err
	}
	var lead []string
	if ev == EventAcceptScan {
		script, _ := ScriptFor(s.Kind)
		for k, v := range script.prefill(s.Scanned) {
			s.Answers[k] = v
		}
		lead = append(lead, "Great, I've filled in what I could read.")
	} else {
		lead = append(lead, "No problem, let's keep going.")
	}
	s.Scanned = nil
	return advance(s, lead)
}

// advance moves to the first unanswered question or into review.
func advance(s Session, lead []string) (Turn, error) {
	script, _ := ScriptFor(s.Kind)
	next := firstUnanswered(script, s.Answers)
	if next < 0 {
		if err := s.fire(EventFinish); err != nil {
			return Turn{Session: s}, err
		}
		s.Step = len(script.Questions)
		replies := append(lead, script.review(s.Answers), reviewAsk)
		return Turn{Session: s, Replies: replies}, nil
	}
	s.Step = next
	return Turn{Session: s, Replies: append(lead, script.Questions[next].Prompt)}, nil
}

func reask(s Session, lead string) (Turn, error) {
	return advance(s, []string{lead})
}

func firstUnanswered(script *Script, answers map[string]string) int {
	for i, q := range script.Questions {
		if strings.TrimSpace(answers[q.Field]) == "" {
			return i
		}
	}
	return -1
}

func describeScan(script *Script, fm fields.FieldMap) string {
	var b strings.Builder
	b.WriteString("I read these details from your document:\n")
	for _, k := range fields.Names(script.Kind) {
		if v := fm[k]; v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", fields.Label(k), v)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func chooseKind(word string) (fields.Kind, bool) {
	switch {
	case strings.Contains(word, "parking"):
		return fields.Parking, true
	case strings.Contains(word, "housing"):
		return fields.Housing, true
	}
	return "", false
}

func oneOf(word string, set []string) bool {
	for _, w := range set {
		if word == w {
			return true
		}
	}
	return false
}

// Prompt re-states what the session is waiting for.
func Prompt(s Session) string {
	switch s.State {
	case StateSelection:
		return chooseText
	case StateCollecting:
		if q, ok := Current(s); ok {
			return q.Prompt
		}
	case StateConfirmScan:
		return scanAsk
	case StateReview:
		return reviewAsk
	case StateComplete:
		return doneText
	case StateClosed:
		return closedHint
	}
	return WelcomeText
}
