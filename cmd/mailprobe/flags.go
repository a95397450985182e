package main

import (
	"flag"
	"io"
	"time"

	"mailprobe/internal/models"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Check selection
	NoSMTP       bool
	NoMX         bool
	NoDisposable bool
	NoRole       bool

	// Output
	JSON    bool
	NoColor bool

	// Runtime
	File    string
	Timeout time.Duration
	Verbose bool
	JSONLog bool

	Addresses []string
}

// ParseFlags parses args (without the program name) into CLIFlags.
func ParseFlags(args []string, errOut io.Writer) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet("mailprobe", flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.BoolVar(&flags.NoSMTP, "no-smtp", false, "Skip the SMTP mailbox probe (heuristic scoring only)")
	fs.BoolVar(&flags.NoMX, "no-mx", false, "Skip the MX record check")
	fs.BoolVar(&flags.NoDisposable, "no-disposable", false, "Skip the disposable domain check")
	fs.BoolVar(&flags.NoRole, "no-role", false, "Skip the role account check")

	fs.BoolVar(&flags.JSON, "json", false, "Print one JSON report per line instead of a table")
	fs.BoolVar(&flags.NoColor, "no-color", false, "Disable coloured output")

	fs.StringVar(&flags.File, "file", "", "Read addresses from a file (stdin if no arguments are given)")
	fs.DurationVar(&flags.Timeout, "timeout", 30*time.Second, "Per-address validation deadline")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	flags.Addresses = fs.Args()
	return flags, nil
}

// Selection turns the -no-* flags into a CheckSelection.
func (f *CLIFlags) Selection() models.CheckSelection {
	return models.CheckSelection{
		SMTP:       !f.NoSMTP,
		MX:         !f.NoMX,
		Disposable: !f.NoDisposable,
		RoleBased:  !f.NoRole,
	}
}
