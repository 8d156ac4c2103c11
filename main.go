package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fragmede/threadr/internal/api"
	"github.com/fragmede/threadr/internal/auth"
	"github.com/fragmede/threadr/internal/cache"
	"github.com/fragmede/threadr/internal/config"
	"github.com/fragmede/threadr/internal/monitor"
	"github.com/fragmede/threadr/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", filepath.Join(config.Default().CacheDir, "config.yaml"), "path to config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-config file] <post-id>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	postID := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		log.Fatalf("creating cache dir: %v", err)
	}

	// The terminal belongs to the UI; logs go to a file.
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("opening log: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	db, err := cache.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening cache: %v", err)
	}
	defer db.Close()

	client := api.NewClient(cfg.BaseURL, cfg.RequestTimeout)
	session := auth.NewSession(client)
	mon := monitor.New(client, cfg.PollInterval, cfg.RequestTimeout)
	defer mon.Stop()

	app := ui.NewApp(cfg, postID, client, db, session, mon)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	app.SetProgram(p)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
