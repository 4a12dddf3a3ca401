package report

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"appealdesk/models"
	"appealdesk/pkg/database"
	"appealdesk/pkg/export"

	"gorm.io/gorm"
)

// Summary aggregates the cases of one month.
type Summary struct {
	Total     int
	Letters   int
	ByKind    map[string]int
	ByState   map[string]int
	ByChannel map[string]int
}

// MonthRange returns the UTC bounds of month (YYYY-MM).
func MonthRange(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// Summarize counts cases per kind, state and channel.
func Summarize(cases []models.Case) Summary {
	s := Summary{ByKind: map[string]int{}, ByState: map[string]int{}, ByChannel: map[string]int{}}
	for _, c := range cases {
		s.Total++
		kind := c.Kind
		if kind == "" {
			kind = "(none)"
		}
		s.ByKind[kind]++
		s.ByState[c.State]++
		s.ByChannel[c.Channel]++
		if c.LetterGeneratedAt != nil {
			s.Letters++
		}
	}
	return s
}

// Print writes s in the report's text layout.
func (s Summary) Print(w io.Writer, label string) {
	fmt.Fprintf(w, "Report for %s (UTC):\n", label)
	fmt.Fprintf(w, "  cases=%d letters=%d\n", s.Total, s.Letters)
	printCounts(w, "kind", s.ByKind)
	printCounts(w, "state", s.ByState)
	printCounts(w, "channel", s.ByChannel)
}

func printCounts(w io.Writer, name string, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s=%s count=%d\n", name, k, m[k])
	}
}

// RunReport prints a month-bounded case report (month in YYYY-MM), optionally
// for a single username, listing rows and writing an XLSX copy.
func RunReport(dsn, username, month string, list bool, xlsxPath string) {
	gdb := database.MustOpen(dsn)
	start, end, err := MonthRange(month)
	if err != nil {
		log.Fatal(err)
	}

	q := gdb.Model(&models.Case{}).Where("created_at >= ? AND created_at < ?", start, end)
	label := "all users month=" + month
	if username != "" {
		var user models.User
		if err := gdb.Where("username = ?", username).First(&user).Error; err != nil {
			log.Fatalf("user not found: %v", err)
		}
		q = q.Where("user_id = ?", user.ID)
		label = fmt.Sprintf("user=%s month=%s", user.Username, month)
	}
	var rows []models.Case
	if err := q.Order("id").Find(&rows).Error; err != nil {
		log.Fatalf("query failed: %v", err)
	}

	Summarize(rows).Print(os.Stdout, label)
	if list {
		for _, r := range rows {
			fmt.Printf("%d|%s|%s|%s|%s|%s\n", r.ID, r.Channel, r.Kind, r.State, export.Reference(&r), r.CreatedAt.Format(time.RFC3339))
		}
	}
	if xlsxPath != "" {
		if err := writeWorkbook(gdb, rows, xlsxPath); err != nil {
			log.Fatalf("xlsx: %v", err)
		}
		fmt.Printf("wrote %s\n", xlsxPath)
	}
}

func writeWorkbook(gdb *gorm.DB, rows []models.Case, path string) error {
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var ups []models.Upload
	if len(ids) > 0 {
		if err := gdb.Where("case_id IN ?", ids).Order("id").Find(&ups).Error; err != nil {
			return err
		}
	}
	data, err := export.Workbook(rows, ups)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
