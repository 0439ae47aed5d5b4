//go:build linux && cgo

// crosscheck compares this binding's reader against the reference
// go-systemd sdjournal binding: both walk the same journal tail and
// the cursors and messages must agree entry for entry.
package main

import (
	"fmt"
	"os"

	"github.com/coreos/go-systemd/v22/sdjournal"
	"github.com/mbrock/go-journald/pkg/journal"
	flag "github.com/spf13/pflag"
)

var linesFlag int

func main() {
	flag.IntVarP(&linesFlag, "lines", "n", 10, "number of tail entries to compare")
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "crosscheck:", err)
		os.Exit(1)
	}
}

func run() error {
	ours, err := tailOurs(linesFlag)
	if err != nil {
		return fmt.Errorf("go-journald reader: %w", err)
	}
	ref, err := tailReference(linesFlag)
	if err != nil {
		return fmt.Errorf("sdjournal reader: %w", err)
	}

	if len(ours) != len(ref) {
		return fmt.Errorf("entry count mismatch: %d vs %d", len(ours), len(ref))
	}
	mismatches := 0
	for i := range ours {
		if ours[i] != ref[i] {
			mismatches++
			fmt.Printf("entry %d differs:\n  ours: %v\n  ref:  %v\n", i, ours[i], ref[i])
		}
	}
	if mismatches > 0 {
		return fmt.Errorf("%d of %d entries differ", mismatches, len(ours))
	}
	fmt.Printf("ok: %d entries agree\n", len(ours))
	return nil
}

type tailEntry struct {
	Cursor  string
	Message string
}

func tailOurs(n int) ([]tailEntry, error) {
	r, err := journal.Open(journal.ReaderConfig{})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := r.Seek(journal.Tail{}); err != nil {
		return nil, err
	}
	var out []tailEntry
	for range n {
		e, err := r.PreviousEntry()
		if err != nil {
			return nil, err
		}
		if e == nil {
			break
		}
		cursor, _ := e.Cursor()
		msg, _ := e.Message()
		out = append(out, tailEntry{Cursor: cursor, Message: msg})
	}
	return out, nil
}

func tailReference(n int) ([]tailEntry, error) {
	j, err := sdjournal.NewJournal()
	if err != nil {
		return nil, err
	}
	defer j.Close()

	if err := j.SeekTail(); err != nil {
		return nil, err
	}
	var out []tailEntry
	for range n {
		advanced, err := j.Previous()
		if err != nil {
			return nil, err
		}
		if advanced == 0 {
			break
		}
		e, err := j.GetEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, tailEntry{Cursor: e.Cursor, Message: e.Fields["MESSAGE"]})
	}
	return out, nil
}
