package sanitize

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"appealdesk/models"
	"appealdesk/pkg/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultTables are the application tables, children first.
const DefaultTables = "uploads,cases,refresh_tokens,profiles,users,roles"

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// TableNames splits a comma-separated list and keeps valid identifiers
// (letters, digits, underscore, not starting with a digit).
func TableNames(csv string) []string {
	parts := strings.Split(csv, ",")
	wanted := make([]string, 0, len(parts))
	seen := map[string]bool{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		if !nameRe.MatchString(p) {
			log.Printf("warning: skipping invalid table name '%s'", p)
			continue
		}
		seen[p] = true
		wanted = append(wanted, p)
	}
	return wanted
}

// Run executes the db_sanitize CLI behavior. Exported so a small cmd/main can call it.
func Run() {
	var (
		dryRun = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes    = flag.Bool("yes", false, "Confirm destructive action (required to actually truncate)")
		reseed = flag.Bool("reseed", false, "After truncation, reseed master roles and admin user/profile")
		tables = flag.String("tables", DefaultTables, "Comma-separated list of tables to truncate (default app tables)")
		fks    = flag.Bool("fks", false, "Only print foreign key constraints and exit")
	)
	flag.Parse()

	if os.Getenv("DB_DSN") == "" {
		log.Fatal("DB_DSN must be set to run db_sanitize")
	}
	gdb := database.MustOpen(os.Getenv("DB_DSN"))

	if *fks {
		if err := PrintForeignKeys(gdb, os.Stdout); err != nil {
			log.Fatalf("inspect fks: %v", err)
		}
		return
	}

	wanted := TableNames(*tables)

	existing := []string{}
	// check presence individually to avoid any injection risk
	for _, t := range wanted {
		var cnt int64
		if err := gdb.Raw("SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?", t).Scan(&cnt).Error; err != nil {
			log.Fatalf("failed to query pg_tables for %s: %v", t, err)
		}
		if cnt > 0 {
			existing = append(existing, t)
		} else {
			log.Printf("info: table %s not found, skipping", t)
		}
	}
	if len(existing) == 0 {
		log.Println("no requested tables present in the database; nothing to do")
		return
	}

	fmt.Println("Tables considered for truncation:")
	for _, t := range existing {
		fmt.Printf(" - %s\n", t)
	}

	if *dryRun {
		fmt.Println("dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive operation. Pass --yes to confirm execution. Aborting.")
		return
	}

	// build a quoted list of identifiers (we validated names) to avoid accidental injection
	quoted := make([]string, 0, len(existing))
	for _, t := range existing {
		// double-quote the identifier to preserve case and safety
		quoted = append(quoted, fmt.Sprintf("\"%s\"", t))
	}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
	log.Printf("Executing: %s", stmt)
	// execute with a timeout context
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := gdb.WithContext(ctx).Exec(stmt).Error; err != nil {
		log.Fatalf("truncate failed: %v", err)
	}
	log.Println("Truncate completed.")

	if *reseed {
		if err := reseedRolesAndAdmin(gdb); err != nil {
			log.Fatalf("reseed failed: %v", err)
		}
	}
}

func reseedRolesAndAdmin(gdb *gorm.DB) error {
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		if err := gdb.Where("name = ?", r.Name).FirstOrCreate(&r).Error; err != nil {
			return fmt.Errorf("failed to ensure role %s: %w", r.Name, err)
		}
	}
	var role models.Role
	if err := gdb.Where("name = ?", "administrator").First(&role).Error; err != nil {
		return fmt.Errorf("failed to find administrator role: %w", err)
	}
	rid := role.ID
	hashed, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := models.User{Username: "admin", HashedPassword: hashed, RoleID: &rid}
	if err := gdb.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	profile := models.Profile{UserID: admin.ID, Name: "Administrator", Email: "admin@example.com"}
	if err := gdb.Create(&profile).Error; err != nil {
		return fmt.Errorf("failed to create admin profile: %w", err)
	}
	return nil
}

// PrintForeignKeys lists the foreign key constraints of the database.
func PrintForeignKeys(gdb *gorm.DB, w io.Writer) error {
	type fkRow struct {
		ConstraintName  string
		TableName       string
		SrcColumns      string
		ReferencedTable string
		RefColumns      string
		Definition      string
	}
	var rows []fkRow
	err := gdb.Raw(`
		SELECT
		  con.conname AS constraint_name,
		  rel.relname AS table_name,
		  array_to_string(array_agg(att.attname ORDER BY u.ord), ',') AS src_columns,
		  confrel.relname AS referenced_table,
		  array_to_string(array_agg(att2.attname ORDER BY u.ord), ',') AS ref_columns,
		  pg_get_constraintdef(con.oid) AS definition
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_class confrel ON confrel.oid = con.confrelid
		JOIN unnest(con.conkey) WITH ORDINALITY AS u(attnum, ord) ON true
		JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = u.attnum
		LEFT JOIN unnest(con.confkey) WITH ORDINALITY AS v(confkey, ord2) ON v.ord2 = u.ord
		LEFT JOIN pg_attribute att2 ON att2.attrelid = con.confrelid AND att2.attnum = v.confkey
		WHERE con.contype = 'f'
		GROUP BY con.oid, con.conname, rel.relname, confrel.relname
		ORDER BY rel.relname, con.conname`).Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("query constraints: %w", err)
	}
	fmt.Fprintln(w, "Foreign keys:")
	for _, r := range rows {
		fmt.Fprintf(w, "- %s: %s(%s) -> %s(%s)\n    def: %s\n", r.ConstraintName, r.TableName, r.SrcColumns, r.ReferencedTable, r.RefColumns, r.Definition)
	}
	return nil
}
