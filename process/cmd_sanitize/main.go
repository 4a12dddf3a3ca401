package main

import (
	"appealdesk/pkg/config"
	"appealdesk/process/sanitize"
)

func main() {
	config.LoadDotEnv()
	sanitize.Run()
}
