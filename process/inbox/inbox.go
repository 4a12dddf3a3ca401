// Package inbox watches a drop directory for scanned documents, extracts
// their fields and records the outcome as Upload rows. Files directly under
// the root use the default kind; files under parking/ or housing/ use that
// kind. Source images are removed once read.
package inbox

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"appealdesk/models"
	"appealdesk/pkg/cases"
	"appealdesk/pkg/fields"
	"appealdesk/pkg/intake"

	"github.com/fsnotify/fsnotify"
)

const (
	tick   = 250 * time.Millisecond
	stable = 300 * time.Millisecond
)

// Recorder stores upload rows. cases.GormStore satisfies it.
type Recorder interface {
	CreateUploads(ctx context.Context, ups []models.Upload) error
}

// Options configure a Runner.
type Options struct {
	Dir     string
	Kind    fields.Kind
	UserID  *uint
	Workers int
	DryRun  bool
	Verbose bool
}

// Stats counts what a run did.
type Stats struct {
	Processed int
	Failed    int
	Empty     int
}

// Runner processes inbox files with a worker pool.
type Runner struct {
	Opts   Options
	Intake *intake.Processor
	Store  Recorder

	inflight sync.Map // path -> struct{}
	mu       sync.Mutex
	stats    Stats
}

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Runner) workers() int {
	if r.Opts.Workers <= 0 {
		return runtime.NumCPU()
	}
	return r.Opts.Workers
}

func (r *Runner) logV(format string, args ...any) {
	if r.Opts.Verbose {
		log.Printf(format, args...)
	}
}

// Scan processes every supported file currently in the inbox and waits for
// the pool to drain.
func (r *Runner) Scan(ctx context.Context) Stats {
	files := r.listAll()
	log.Printf("Scanning %d files (workers=%d)", len(files), r.workers())
	ch := make(chan string, len(files))
	for _, f := range files {
		ch <- f
	}
	close(ch)
	r.runPool(ctx, ch)
	return r.Stats()
}

// Watch processes files as they appear until ctx is cancelled. A file is
// queued once it has seen no new events for a short stable period.
func (r *Runner) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	for _, d := range r.dirs() {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	log.Printf("Watching %s (debounced) ...", r.Opts.Dir)

	fileCh := make(chan string, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.runPool(ctx, fileCh)
	}()

	pending := map[string]time.Time{}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			close(fileCh)
			<-done
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				close(fileCh)
				<-done
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && IsSupported(ev.Name) {
				pending[ev.Name] = time.Now()
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > stable {
					fileCh <- name
					delete(pending, name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				close(fileCh)
				<-done
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

func (r *Runner) runPool(ctx context.Context, files <-chan string) {
	var wg sync.WaitGroup
	for i := 0; i < r.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range files {
				if ctx.Err() != nil {
					continue
				}
				r.processFile(ctx, path)
			}
		}()
	}
	wg.Wait()
}

// processFile extracts one file and records it. Files that are already being
// handled are skipped.
func (r *Runner) processFile(ctx context.Context, path string) {
	if _, busy := r.inflight.LoadOrStore(path, struct{}{}); busy {
		r.logV("SKIP in flight %s", path)
		return
	}
	defer r.inflight.Delete(path)

	kind, ok := KindFor(r.Opts.Dir, path, r.Opts.Kind)
	if !ok {
		r.logV("SKIP no kind for %s", path)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("WARN read %s: %v", path, err)
		return
	}
	name := filepath.Base(path)
	docs := []intake.Document{{Name: name, Data: data}}
	res, err := r.Intake.Batch(kind, docs)

	r.mu.Lock()
	switch {
	case err != nil:
		r.stats.Failed++
	case res.Fields.Empty():
		r.stats.Empty++
	default:
		r.stats.Processed++
	}
	r.mu.Unlock()

	if r.Opts.DryRun {
		log.Printf("DRY %s kind=%s found=%d fields=%v err=%v", name, kind, res.Fields.Found(), res.Fields, err)
		return
	}
	ups := cases.UploadRecords(r.Opts.UserID, nil, models.SourceInbox, docs, res)
	if r.Store != nil {
		if serr := r.Store.CreateUploads(ctx, ups); serr != nil {
			log.Printf("ERROR record upload %s: %v", name, serr)
			return
		}
	}
	if err != nil {
		log.Printf("WARN extract %s: %v", name, err)
	} else {
		log.Printf("NEW upload file=%s kind=%s found=%d", name, kind, res.Fields.Found())
	}
	if rmErr := os.Remove(path); rmErr != nil {
		log.Printf("WARN remove %s: %v", path, rmErr)
	}
}

// KindFor decides the document kind of path inside root: a parking/ or
// housing/ parent wins over def.
func KindFor(root, path string, def fields.Kind) (fields.Kind, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) == 2 {
		return fields.ParseKind(parts[0])
	}
	if len(parts) == 1 && def != "" {
		return def, true
	}
	return "", false
}

func (r *Runner) dirs() []string {
	out := []string{r.Opts.Dir}
	for _, k := range []fields.Kind{fields.Parking, fields.Housing} {
		d := filepath.Join(r.Opts.Dir, string(k))
		if fi, err := os.Stat(d); err == nil && fi.IsDir() {
			out = append(out, d)
		}
	}
	return out
}

func (r *Runner) listAll() []string {
	var out []string
	for _, d := range r.dirs() {
		for _, name := range ListImageFiles(d) {
			out = append(out, filepath.Join(d, name))
		}
	}
	return out
}

// ListImageFiles returns the supported file names in dir, sorted.
func ListImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true,
}

// IsSupported reports whether name is an image the inbox reads. Intake temp
// files are ignored.
func IsSupported(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.Contains(base, "_preview") {
		return false
	}
	return imageExts[strings.ToLower(filepath.Ext(base))]
}
