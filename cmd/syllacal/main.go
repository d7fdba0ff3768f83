package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/syllacal/internal/api"
	"github.com/tgienger/syllacal/internal/calendar"
	"github.com/tgienger/syllacal/internal/config"
	"github.com/tgienger/syllacal/internal/db"
	"github.com/tgienger/syllacal/internal/planner"
	"github.com/tgienger/syllacal/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	envFile := flag.String("env", "", "path to a .env file (default ./.env)")
	apiURL := flag.String("api-url", "", "backend base URL (overrides SYLLACAL_API_URL)")
	token := flag.String("token", "", "bearer token (overrides SYLLACAL_TOKEN)")
	view := flag.String("view", "", "initial calendar view: month, week or day")
	flag.Parse()

	if *showVersion {
		fmt.Printf("syllacal %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	if *token != "" {
		cfg.Token = *token
	}
	if *view != "" {
		v, ok := calendar.ParseView(*view)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown view %q\n", *view)
			os.Exit(2)
		}
		cfg.View = v
		cfg.ViewSet = true
	}

	// The TUI owns the terminal, so logs go to a file or nowhere
	if cfg.Debug {
		f, err := tea.LogToFile(filepath.Join(cfg.DataDir, "debug.log"), "syllacal")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(ioutil.Discard)
	}

	// Initialize database
	database, err := db.New(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	client := api.New(cfg.APIURL, cfg.Token)
	log.Printf("syllacal %s talking to %s", version, cfg.APIURL)

	// Create and run the application
	app := ui.NewApp(database, client, planner.Settings{
		DisplayCap:   cfg.DisplayCap,
		UndoWindow:   cfg.UndoWindow,
		UpcomingDays: cfg.UpcomingDays,
		View:         cfg.View,
		ViewSet:      cfg.ViewSet,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}
