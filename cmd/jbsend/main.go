// jbsend - submit an entry to the systemd journal
//
// Usage:
//
//	jbsend hello world                      Send "hello world"
//	echo hi | jbsend                        Send stdin as the message
//	jbsend -F UNIT_TEST=1 -p 4 warning!     Extra fields and priority
//	jbsend --socket ping                    Use the native socket path
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mbrock/go-journald/pkg/journal"
	flag "github.com/spf13/pflag"
)

var (
	fieldFlags   []string
	priorityFlag int
	socketFlag   bool
	socketPath   string
)

func main() {
	flag.StringArrayVarP(&fieldFlags, "field", "F", nil, "extra FIELD=value to attach (repeatable)")
	flag.IntVarP(&priorityFlag, "priority", "p", journal.PriInfo, "syslog priority (0-7)")
	flag.BoolVar(&socketFlag, "socket", false, "submit over the native journald socket instead of sendv")
	flag.StringVar(&socketPath, "socket-path", "", "socket path for --socket (default "+journal.DefaultSocketPath+")")
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "jbsend:", err)
		os.Exit(1)
	}
}

func run() error {
	message := strings.Join(flag.Args(), " ")
	if message == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		message = strings.TrimRight(string(data), "\n")
	}

	e := journal.NewEntry()
	e.SetMessage(message)
	e.SetString(journal.FieldPriority, strconv.Itoa(priorityFlag))
	for _, f := range fieldFlags {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return fmt.Errorf("--field wants FIELD=value, got %q", f)
		}
		e.SetString(name, value)
	}

	var sink journal.Sink
	if socketFlag {
		sink = journal.NewSocketWriter(socketPath)
	} else {
		w, err := journal.NewWriter()
		if err != nil {
			return err
		}
		sink = w
	}
	defer sink.Close()

	return sink.Submit(e)
}
