package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"appealdesk/models"
	"appealdesk/pkg/fields"
	"appealdesk/pkg/intake"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	photoReceived = "Got it, reading your document..."
	extraImages   = "Only the first %d images are read for a housing complaint."
	downloadFail  = "Sorry, I could not download that file. Please try again or type the information."
)

type fileRef struct {
	ID   string
	Name string
}

type mediaBatch struct {
	chatID int64

	mu      sync.Mutex
	docs    []intake.Document
	timer   *time.Timer
	flushed bool
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// mediaFile picks the file to read from msg: the largest photo size, or a
// document that looks like an image.
func mediaFile(msg *tgbotapi.Message) (fileRef, bool) {
	if n := len(msg.Photo); n > 0 {
		ph := msg.Photo[n-1]
		return fileRef{ID: ph.FileID, Name: "photo_" + ph.FileUniqueID + ".jpg"}, true
	}
	if d := msg.Document; d != nil {
		if strings.HasPrefix(d.MimeType, "image/") || imageExts[strings.ToLower(filepath.Ext(d.FileName))] {
			name := d.FileName
			if name == "" {
				name = "document_" + d.FileUniqueID
			}
			return fileRef{ID: d.FileID, Name: name}, true
		}
	}
	return fileRef{}, false
}

func batchKey(chatID int64, mediaGroupID string) string {
	if mediaGroupID != "" {
		return "grp:" + mediaGroupID
	}
	return "chat:" + fmt.Sprint(chatID)
}

// acceptMedia downloads the file and adds it to the chat's pending batch. The
// batch is scanned once no new file has arrived for Debounce.
func (r *Router) acceptMedia(ctx context.Context, msg *tgbotapi.Message, ref fileRef) {
	cid := msg.Chat.ID
	url, err := r.Bot.GetFileDirectURL(ref.ID)
	if err != nil {
		log.Printf("WARN telegram file url chat=%d: %v", cid, err)
		r.send(cid, downloadFail)
		return
	}
	data, err := r.fetch(ctx, url)
	if err != nil {
		log.Printf("WARN telegram download chat=%d: %v", cid, err)
		r.send(cid, downloadFail)
		return
	}

	key := batchKey(cid, msg.MediaGroupID)
	var b *mediaBatch
	for {
		bi, _ := r.batches.LoadOrStore(key, &mediaBatch{chatID: cid})
		b = bi.(*mediaBatch)
		b.mu.Lock()
		if !b.flushed {
			break
		}
		// flush already took this batch; start a new one
		b.mu.Unlock()
		r.batches.CompareAndDelete(key, b)
	}
	b.docs = append(b.docs, intake.Document{Name: ref.Name, Data: data})
	first := len(b.docs) == 1
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(r.debounce(), func() { r.flush(context.Background(), key) })
	b.mu.Unlock()

	if first {
		r.send(cid, photoReceived)
	}
}

// flush scans a pending batch against the chat's current case.
func (r *Router) flush(ctx context.Context, key string) {
	bi, ok := r.batches.LoadAndDelete(key)
	if !ok {
		return
	}
	b := bi.(*mediaBatch)
	b.mu.Lock()
	b.flushed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	docs := append([]intake.Document(nil), b.docs...)
	cid := b.chatID
	b.mu.Unlock()
	if len(docs) == 0 {
		return
	}

	unlock := r.lock(cid)
	defer unlock()

	c, opened, err := r.current(ctx, cid)
	if err != nil {
		r.fail(cid, err)
		return
	}
	r.reply(cid, opened)
	if n := r.maxImages(); fields.Kind(c.Kind) == fields.Housing && len(docs) > n {
		r.send(cid, fmt.Sprintf(extraImages, n))
	}
	out, res, err := r.Cases.Scan(ctx, c, models.ChannelTelegram, docs)
	if err != nil {
		r.fail(cid, err)
		return
	}
	log.Printf("TELEGRAM scan chat=%d case=%d docs=%d found=%d", cid, c.ID, len(docs), res.Fields.Found())
	r.reply(cid, out)
}

func (r *Router) debounce() time.Duration {
	if r.Debounce > 0 {
		return r.Debounce
	}
	return defaultDebounce
}

func (r *Router) maxImages() int {
	if r.MaxImages > 0 {
		return r.MaxImages
	}
	return intake.DefaultMaxHousingImages
}

func (r *Router) fetch(ctx context.Context, url string) ([]byte, error) {
	if r.Fetch != nil {
		return r.Fetch(ctx, url, r.MaxBytes)
	}
	return download(ctx, url, r.MaxBytes)
}

func download(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	if limit <= 0 {
		return io.ReadAll(resp.Body)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}

var httpClient = &http.Client{Timeout: 60 * time.Second}
