package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"appealdesk/pkg/config"
	"appealdesk/process/report"
)

func main() {
	username := flag.String("username", "", "username to report for (empty = all users)")
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month to report (YYYY-MM)")
	list := flag.Bool("list", false, "list matching cases")
	xlsx := flag.String("xlsx", "", "also write the month's cases to this XLSX file")
	flag.Parse()

	config.LoadDotEnv()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN and retry")
		os.Exit(2)
	}

	report.RunReport(dsn, *username, *month, *list, *xlsx)
}
