// Package telegram drives dispute conversations over the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"appealdesk/models"
	"appealdesk/pkg/cases"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultDebounce = 1200 * time.Millisecond
	maxMessageRunes = 3900

	textOnly       = "Please send a text answer or a photo of your document."
	unknownCommand = "Unknown command. Use /start to begin or /restart to start over."
	failedText     = "Something went wrong on our side. Please try again."
	letterCaption  = "Your dispute letter"
)

// Sender is the part of *tgbotapi.BotAPI the router uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// ChatCases finds the current case of a chat.
type ChatCases interface {
	LatestForChat(ctx context.Context, chatID int64) (*models.Case, error)
}

// Router turns updates into case turns and sends the replies back.
type Router struct {
	Bot       Sender
	Cases     *cases.Service
	Chats     ChatCases
	MaxImages int
	MaxBytes  int64
	Debounce  time.Duration
	// Fetch downloads a Telegram file URL; nil uses an HTTP GET.
	Fetch func(ctx context.Context, url string, limit int64) ([]byte, error)

	locks   sync.Map // chatID -> *sync.Mutex
	batches sync.Map // key -> *mediaBatch
}

// lock serialises turns of one chat.
func (r *Router) lock(chatID int64) func() {
	mi, _ := r.locks.LoadOrStore(chatID, &sync.Mutex{})
	mu := mi.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// HandleUpdate processes one update. It is safe to call from many goroutines.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID

	if ref, ok := mediaFile(msg); ok {
		r.acceptMedia(ctx, msg, ref)
		return
	}

	unlock := r.lock(cid)
	defer unlock()

	if msg.IsCommand() {
		r.handleCommand(ctx, cid, msg.Command())
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		r.send(cid, textOnly)
		return
	}
	c, opened, err := r.current(ctx, cid)
	if err != nil {
		r.fail(cid, err)
		return
	}
	r.reply(cid, opened)
	out, err := r.Cases.Message(ctx, c, text)
	if err != nil {
		r.fail(cid, err)
		return
	}
	r.reply(cid, out)
}

func (r *Router) handleCommand(ctx context.Context, cid int64, cmd string) {
	switch cmd {
	case "start":
		out, err := r.Cases.Open(ctx, nil, models.ChannelTelegram, cid, "")
		if err != nil {
			r.fail(cid, err)
			return
		}
		r.reply(cid, out)
	case "restart":
		c, opened, err := r.current(ctx, cid)
		if err != nil {
			r.fail(cid, err)
			return
		}
		if opened != nil {
			r.reply(cid, opened)
			return
		}
		out, err := r.Cases.Restart(ctx, c)
		if err != nil {
			r.fail(cid, err)
			return
		}
		r.reply(cid, out)
	default:
		r.send(cid, unknownCommand)
	}
}

// current loads the chat's newest case. When the chat has none a case is
// opened and its welcome outcome returned alongside.
func (r *Router) current(ctx context.Context, cid int64) (*models.Case, *cases.Outcome, error) {
	c, err := r.Chats.LatestForChat(ctx, cid)
	if err != nil {
		return nil, nil, fmt.Errorf("load case for chat %d: %w", cid, err)
	}
	if c != nil {
		return c, nil, nil
	}
	out, err := r.Cases.Open(ctx, nil, models.ChannelTelegram, cid, "")
	if err != nil {
		return nil, nil, err
	}
	return out.Case, out, nil
}

// reply sends every reply of out and, when a letter was generated, the
// letter as a document.
func (r *Router) reply(cid int64, out *cases.Outcome) {
	if out == nil {
		return
	}
	for _, text := range out.Turn.Replies {
		r.send(cid, text)
	}
	if out.Letter == nil {
		return
	}
	doc := tgbotapi.NewDocument(cid, tgbotapi.FileBytes{Name: out.Letter.Name, Bytes: out.Letter.Data})
	doc.Caption = letterCaption
	if _, err := r.Bot.Send(doc); err != nil {
		log.Printf("ERROR telegram send letter chat=%d: %v", cid, err)
	}
}

func (r *Router) send(cid int64, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	msg := tgbotapi.NewMessage(cid, clip(text))
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("WARN telegram send chat=%d: %v", cid, err)
	}
}

func (r *Router) fail(cid int64, err error) {
	log.Printf("ERROR telegram chat=%d: %v", cid, err)
	if errors.Is(err, context.Canceled) {
		return
	}
	r.send(cid, failedText)
}

func clip(s string) string {
	rs := []rune(s)
	if len(rs) <= maxMessageRunes {
		return s
	}
	return string(rs[:maxMessageRunes]) + "…"
}
