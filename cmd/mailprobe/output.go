package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"mailprobe/internal/models"
	"mailprobe/internal/validator"
)

type printer struct {
	out  io.Writer
	json bool

	pass *color.Color
	fail *color.Color
	skip *color.Color
	head *color.Color
}

func newPrinter(out io.Writer, jsonOut, noColor bool) *printer {
	p := &printer{
		out:  out,
		json: jsonOut,
		pass: color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		skip: color.New(color.FgYellow),
		head: color.New(color.FgCyan, color.Bold),
	}
	if noColor || jsonOut {
		for _, c := range []*color.Color{p.pass, p.fail, p.skip, p.head} {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) report(r *models.ValidationReport) error {
	if p.json {
		return json.NewEncoder(p.out).Encode(r)
	}

	verdict := p.fail.Sprint("INVALID")
	if r.Valid {
		verdict = p.pass.Sprint("VALID")
	}
	fmt.Fprintf(p.out, "%s  %s\n", p.head.Sprint(r.Email), verdict)

	stages := []struct {
		name   string
		result models.CheckResult
	}{
		{models.CheckSyntax, r.Results.Syntax},
		{models.CheckRoleBased, r.Results.RoleBased},
		{models.CheckDisposable, r.Results.Disposable},
		{models.CheckMX, r.Results.MX},
		{models.CheckSMTP, r.Results.SMTP},
	}
	for _, s := range stages {
		fmt.Fprintf(p.out, "  %-17s %s  %s\n", s.name, p.mark(s.result), s.result.Message)
	}
	if c := r.Results.SMTP.Confidence; c != nil {
		fmt.Fprintf(p.out, "  %-17s %d%%\n", "confidence", *c)
	}
	fmt.Fprintf(p.out, "  %-17s %s\n\n", "reason", validator.Reason(r))
	return nil
}

func (p *printer) failure(email string, err error) {
	if p.json {
		_ = json.NewEncoder(p.out).Encode(map[string]string{"email": email, "error": err.Error()})
		return
	}
	fmt.Fprintf(p.out, "%s  %s\n  %s\n\n", p.head.Sprint(email), p.fail.Sprint("ERROR"), err)
}

func (p *printer) mark(r models.CheckResult) string {
	switch {
	case !r.Passed:
		return p.fail.Sprint("✗")
	case strings.HasPrefix(r.Message, "Skipped"):
		return p.skip.Sprint("-")
	default:
		return p.pass.Sprint("✓")
	}
}
