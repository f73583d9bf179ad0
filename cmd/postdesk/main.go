package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"postdesk/internal/app"
	"postdesk/internal/config"
	"postdesk/internal/history"
	"postdesk/internal/logging"
)

func main() {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	cfg := config.Load()

	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
	}
	defer logging.Close()

	historyPath := cfg.History.Path
	if historyPath == "" {
		historyPath = history.DefaultPath()
	}
	store, err := history.Open(historyPath)
	if err != nil {
		// The console works without local history.
		logging.Warn("history store unavailable", "path", historyPath, "err", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	logging.Info("postdesk starting",
		"api", cfg.API.BaseURL,
		"channel", cfg.Channel.Addr,
	)

	p := tea.NewProgram(app.New(cfg, store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
