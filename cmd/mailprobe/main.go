package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"mailprobe/internal/config"
	"mailprobe/internal/di"
	"mailprobe/internal/logging"
	"mailprobe/internal/validator"
)

// Exit codes: 0 all valid, 1 at least one invalid or errored, 2 usage.
const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

func main() {
	flags, err := ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		os.Exit(exitUsage)
	}

	logger, err := logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(exitUsage)
	}
	defer logger.Sync()

	cfg, err := config.New()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	container, err := di.BuildContainerWith(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build container", zap.Error(err))
	}

	code := exitOK
	err = container.Invoke(func(lc *di.Lifecycle, checker validator.Checker) error {
		defer lc.Stop(logger)

		addresses, err := collectAddresses(flags, os.Stdin)
		if err != nil {
			return err
		}
		if len(addresses) == 0 {
			fmt.Fprintln(os.Stderr, "mailprobe: no addresses given")
			code = exitUsage
			return nil
		}

		p := newPrinter(os.Stdout, flags.JSON, flags.NoColor)
		code = validateAll(lc.Context(), checker, flags, addresses, p)
		return nil
	})
	if err != nil {
		logger.Fatal("mailprobe failed", zap.Error(err))
	}
	os.Exit(code)
}

// collectAddresses takes addresses from arguments, then -file, then stdin.
func collectAddresses(flags *CLIFlags, stdin io.Reader) ([]string, error) {
	if len(flags.Addresses) > 0 {
		return flags.Addresses, nil
	}

	in := stdin
	if flags.File != "" {
		f, err := os.Open(flags.File)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", flags.File, err)
		}
		defer f.Close()
		in = f
	}
	return readAddresses(in)
}

// readAddresses reads one address per line, skipping blanks and # comments.
func readAddresses(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading addresses: %w", err)
	}
	return out, nil
}

func validateAll(ctx context.Context, checker validator.Checker, flags *CLIFlags, addresses []string, p *printer) int {
	sel := flags.Selection()
	code := exitOK
	for _, email := range addresses {
		vctx, cancel := context.WithTimeout(ctx, flags.Timeout)
		report, err := checker.Validate(vctx, email, sel)
		cancel()

		if err != nil {
			p.failure(email, err)
			code = exitInvalid
			continue
		}
		if err := p.report(report); err != nil {
			p.failure(email, err)
		}
		if !report.Valid {
			code = exitInvalid
		}
	}
	return code
}
