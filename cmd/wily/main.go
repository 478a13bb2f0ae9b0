package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	wily "github.com/jangelesg/wily"
	"github.com/jangelesg/wily/archivers"
	"github.com/jangelesg/wily/cache"
	"github.com/jangelesg/wily/config"
	"github.com/jangelesg/wily/operators"
	"github.com/jangelesg/wily/utils"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: wily <command> [flags]

commands:
  build   walk the source history and record revisions in the index
  index   list the revisions recorded for each archiver
  clean   remove the cache entirely
  shell   interactive index browser

flags:
  -config  configuration file (default wily.yaml)
  -backend cache backend, file or pebble (default file)
  -debug   verbose diagnostics`)
}

func openStore(backend string, cfg *config.Config) (cache.Store, error) {
	switch backend {
	case "file":
		return cache.NewFileStore(cfg)
	case "pebble":
		return cache.NewPebbleStore(cfg)
	default:
		return nil, fmt.Errorf("wily: unknown cache backend %q", backend)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	flags := flag.NewFlagSet("wily "+command, flag.ExitOnError)
	cfgPath := flags.String("config", "wily.yaml", "configuration file")
	backend := flags.String("backend", "file", "cache backend: file or pebble")
	debug := flags.Bool("debug", false, "verbose diagnostics")
	flags.Usage = usage
	_ = flags.Parse(os.Args[2:])

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := utils.NewDefaultLogger(level)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wily:", err)
		os.Exit(1)
	}
	store, err := openStore(*backend, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wily:", err)
		os.Exit(1)
	}
	defer store.Close()

	switch command {
	case "build":
		err = runBuild(cfg, store, log)
	case "index":
		err = runIndex(cfg, store, log)
	case "clean":
		err = runClean(cfg, store, log)
	case "shell":
		err = runShell(cfg, store, log)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "wily: unknown command %q\n", command)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "wily:", err)
		os.Exit(1)
	}
}

// runBuild records every not-yet-indexed revision of the configured
// archiver's history, then saves the index in one overwrite.
func runBuild(cfg *config.Config, store cache.Store, log utils.Logger) error {
	a, err := archivers.Resolve(cfg.Archiver)
	if err != nil {
		return err
	}
	if _, err := operators.ResolveAll(cfg.Operators); err != nil {
		return err
	}
	st, err := wily.NewState(cfg, store, wily.StateOptions{Archiver: a, Logger: log})
	if err != nil {
		return err
	}
	if err := st.EnsureExists(); err != nil {
		return err
	}
	revisions, err := a.Revisions(cfg.Path, cfg.MaxRevisions)
	if err != nil {
		return err
	}
	idx := st.DefaultIndex()
	if idx.Operators() == nil {
		if err := idx.SetOperators(cfg.Operators); err != nil {
			return err
		}
	}
	added := 0
	for _, rev := range revisions {
		known, err := idx.Contains(rev.Key)
		if err != nil {
			return err
		}
		if known {
			log.Debug("revision already indexed", "key", rev.Key)
			continue
		}
		idx.Add(rev)
		added++
	}
	if err := idx.Save(); err != nil {
		return err
	}
	log.Info("built index", "archiver", a.Name(), "new", added, "total", idx.Len())
	return nil
}

func runIndex(cfg *config.Config, store cache.Store, log utils.Logger) error {
	st, err := wily.NewState(cfg, store, wily.StateOptions{Logger: log})
	if err != nil {
		return err
	}
	header := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	for _, name := range st.Archivers() {
		idx := st.Index(name)
		header.Printf("%s (%d revisions", name, idx.Len())
		if ops := idx.Operators(); ops != nil {
			header.Printf(", operators %v", ops)
		}
		header.Println(")")
		for _, rev := range idx.Revisions() {
			key := rev.Key
			if len(key) > 7 {
				key = key[:7]
			}
			fmt.Printf("  %s  %-20s  ", key, rev.AuthorName)
			dim.Printf("%s  ", rev.Date.Format("2006-01-02"))
			fmt.Println(rev.Message)
		}
	}
	return nil
}

func runClean(cfg *config.Config, store cache.Store, log utils.Logger) error {
	if err := store.Close(); err != nil {
		return err
	}
	if err := os.RemoveAll(cfg.CachePath); err != nil {
		return fmt.Errorf("wily: clean cache: %w", err)
	}
	log.Info("removed cache", "path", cfg.CachePath)
	return nil
}
