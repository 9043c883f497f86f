// Command hmmerscan annotates protein sequences with Pfam families through the
// HMMER web service, and decodes clash records from validation reports.
package main

import (
	"os"

	"github.com/yumyai/pfamscan/internal/config"
	"github.com/yumyai/pfamscan/logger"
)

func main() {
	config.LoadDotEnv()
	cfg := config.FromEnv()

	// Logs go to stderr, so json/yaml on stdout stays clean.
	if err := logger.InitLogger(logger.ParseLevel(cfg.LogLevel)); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := newRootCommand(cfg).Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}
