package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"

	wily "github.com/jangelesg/wily"
	"github.com/jangelesg/wily/cache"
	"github.com/jangelesg/wily/config"
	"github.com/jangelesg/wily/utils"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("archivers"),
	readline.PcItem("revisions"),
	readline.PcItem("get"),
	readline.PcItem("operators"),
	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// runShell is an interactive browser over the loaded state. Read-only: it
// never mutates or saves an index.
func runShell(cfg *config.Config, store cache.Store, log utils.Logger) error {
	st, err := wily.NewState(cfg, store, wily.StateOptions{Logger: log})
	if err != nil {
		return err
	}

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "wily> ",
		HistoryFile:     "/tmp/wily-shell.tmp",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		args := strings.Split(line, " ")
		cmd := args[0]
		args = args[1:]
		err = nil
		switch cmd {
		case "":
		case "exit", "quit":
			return nil
		case "help":
			fmt.Println("archivers | revisions [archiver] | get <key> | operators [archiver] | exit")
		case "archivers":
			for _, name := range st.Archivers() {
				marker := " "
				if name == st.DefaultArchiver() {
					marker = "*"
				}
				fmt.Printf("%s %s (%d revisions)\n", marker, name, st.Index(name).Len())
			}
		case "revisions":
			idx := shellIndex(st, args)
			if idx == nil {
				_, _ = fmt.Fprintln(os.Stderr, "no such archiver")
				break
			}
			for _, key := range idx.RevisionKeys() {
				fmt.Println(key)
			}
		case "operators":
			idx := shellIndex(st, args)
			if idx == nil {
				_, _ = fmt.Fprintln(os.Stderr, "no such archiver")
				break
			}
			fmt.Println(idx.Operators())
		case "get":
			if len(args) != 1 {
				_, _ = fmt.Fprintln(os.Stderr, "usage: get <key>")
				break
			}
			idx := st.DefaultIndex()
			if idx == nil {
				_, _ = fmt.Fprintln(os.Stderr, "no archivers in scope")
				break
			}
			rev, gerr := idx.Get(args[0])
			if gerr != nil {
				err = gerr
				break
			}
			fmt.Printf("%s\n  %s <%s>\n  %s\n  %s\n",
				rev.Key, rev.AuthorName, rev.AuthorEmail,
				rev.Date.Format("2006-01-02 15:04:05"), rev.Message)
		default:
			_, _ = fmt.Fprintf(os.Stderr, "command unknown: %s\n", cmd)
		}

		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error executing %s: %s\n", cmd, err.Error())
		}
	}
	return nil
}

func shellIndex(st *wily.State, args []string) *wily.Index {
	if len(args) > 0 && args[0] != "" {
		return st.Index(args[0])
	}
	return st.DefaultIndex()
}
