// jbtail - print and follow systemd journal entries
//
// Usage:
//
//	jbtail                         Print the journal from the beginning
//	jbtail -n 20                   Print the last 20 entries
//	jbtail -f                      Follow new entries (last 10 first)
//	jbtail -m FIELD=value          Only entries matching FIELD=value
//	jbtail -u nginx                Only entries from a system unit
//	jbtail --cursor <token>        Resume after a saved cursor
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbrock/go-journald/internal/sdunit"
	"github.com/mbrock/go-journald/pkg/journal"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	followFlag    bool
	linesFlag     int
	matchFlags    []string
	unitFlag      string
	userUnitFlag  string
	filesFlag     string
	localFlag     bool
	volatileFlag  bool
	namespaceFlag string
	cursorFlag    string
	jsonFlag      bool
)

func main() {
	flag.BoolVarP(&followFlag, "follow", "f", false, "wait for new entries and print them as they arrive")
	flag.IntVarP(&linesFlag, "lines", "n", 0, "show only the last N entries")
	flag.StringArrayVarP(&matchFlags, "match", "m", nil, "only entries matching FIELD=value (repeatable)")
	flag.StringVarP(&unitFlag, "unit", "u", "", "only entries from the given system unit")
	flag.StringVar(&userUnitFlag, "user-unit", "", "only entries from the given user unit")
	flag.StringVar(&filesFlag, "files", "all", "journal file set: system, user or all")
	flag.BoolVar(&localFlag, "local", false, "only journal files generated on the local machine")
	flag.BoolVar(&volatileFlag, "volatile", false, "only journal files on volatile storage")
	flag.StringVar(&namespaceFlag, "namespace", "", "read the given journal namespace")
	flag.StringVar(&cursorFlag, "cursor", "", "resume reading after the given cursor token")
	flag.BoolVar(&jsonFlag, "json", false, "print entries as JSON objects, one per line")
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "jbtail:", err)
		os.Exit(1)
	}
}

func run() error {
	config := journal.ReaderConfig{
		OnlyLocal:    localFlag,
		OnlyVolatile: volatileFlag,
	}
	switch filesFlag {
	case "system":
		config.Files = journal.FilesSystem
	case "user":
		config.Files = journal.FilesCurrentUser
	case "all":
		config.Files = journal.FilesAll
	default:
		return fmt.Errorf("unknown --files value %q", filesFlag)
	}

	var r *journal.Reader
	var err error
	if namespaceFlag != "" {
		r, err = journal.OpenNamespace(config, namespaceFlag)
	} else {
		r, err = journal.Open(config)
	}
	if err != nil {
		return err
	}
	defer r.Close()

	for _, m := range matchFlags {
		if err := r.AddFilter(m); err != nil {
			return err
		}
	}
	if unitFlag != "" {
		if err := r.AddFilter(sdunit.Match(unitFlag)); err != nil {
			return err
		}
	}
	if userUnitFlag != "" {
		if err := r.AddFilter(sdunit.UserMatch(userUnitFlag)); err != nil {
			return err
		}
	}

	lines := linesFlag
	if lines == 0 && followFlag {
		lines = 10
	}

	var lastCursor string
	switch {
	case cursorFlag != "":
		if err := r.Seek(journal.Cursor(cursorFlag)); err != nil {
			return err
		}
		// The token identifies an exact entry; skip it so we resume
		// after what the caller already saw.
		e, err := r.NextEntry()
		if err != nil {
			return err
		}
		if e != nil {
			if c, _ := e.Cursor(); c != cursorFlag {
				printEntry(e)
				lastCursor = c
			}
		}
	case lines > 0:
		backlog, err := tailBacklog(r, lines)
		if err != nil {
			return err
		}
		for _, e := range backlog {
			printEntry(e)
			lastCursor, _ = e.Cursor()
		}
		// Walking backward left the cursor at the oldest printed
		// entry; jump back to the newest before reading forward.
		if lastCursor != "" {
			if err := r.Seek(journal.Cursor(lastCursor)); err != nil {
				return err
			}
			if _, err := r.NextEntry(); err != nil {
				return err
			}
		}
	default:
		if err := r.Seek(journal.Head{}); err != nil {
			return err
		}
	}

	if !followFlag {
		for e, err := range r.Entries() {
			if err != nil {
				return err
			}
			printEntry(e)
			lastCursor, _ = e.Cursor()
		}
		if lastCursor != "" && term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Printf("-- cursor: %s\n", lastCursor)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Finite poll passes so cancellation is picked up between waits.
	for ctx.Err() == nil {
		for e, err := range r.Follow(ctx, time.Second) {
			if err != nil {
				return err
			}
			printEntry(e)
		}
	}
	return nil
}

// tailBacklog walks backward from the end, returning up to n entries
// in forward order.
func tailBacklog(r *journal.Reader, n int) ([]*journal.Entry, error) {
	if err := r.Seek(journal.Tail{}); err != nil {
		return nil, err
	}
	var backlog []*journal.Entry
	for range n {
		e, err := r.PreviousEntry()
		if err != nil {
			return nil, err
		}
		if e == nil {
			break
		}
		backlog = append(backlog, e)
	}
	for i, j := 0, len(backlog)-1; i < j; i, j = i+1, j-1 {
		backlog[i], backlog[j] = backlog[j], backlog[i]
	}
	return backlog, nil
}

func printEntry(e *journal.Entry) {
	if jsonFlag {
		obj := make(map[string]string, len(e.Fields))
		for _, name := range e.Names() {
			obj[name], _ = e.FieldString(name)
		}
		line, err := json.Marshal(obj)
		if err != nil {
			return
		}
		fmt.Println(string(line))
		return
	}

	msg, _ := e.Message()
	if t, ok := e.WallclockTime(); ok {
		fmt.Printf("%s %s\n", t.Format("Jan 02 15:04:05"), msg)
	} else {
		fmt.Println(msg)
	}
}
