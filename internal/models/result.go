package models

import (
	"fmt"
	"strings"
)

// Check names as they appear in the report and in request "tests" objects.
const (
	CheckSyntax     = "syntax"
	CheckMX         = "mx"
	CheckSMTP       = "smtp"
	CheckDisposable = "disposableDomain"
	CheckRoleBased  = "roleBased"
)

// MxRecord is one resolved mail exchanger. Lower priority wins.
type MxRecord struct {
	Exchange string `json:"exchange"`
	Priority uint16 `json:"priority"`
}

// CheckResult is the outcome of one sub-check. A failed check always
// carries a non-empty Message.
type CheckResult struct {
	Passed      bool         `json:"passed"`
	Message     string       `json:"message"`
	MatchedRole string       `json:"matchedRole,omitempty"`
	Records     []MxRecord   `json:"records,omitempty"`
	Provider    string       `json:"provider,omitempty"`
	Confidence  *int         `json:"confidence,omitempty"`
	Details     *SMTPDetails `json:"details,omitempty"`
}

// Results holds one CheckResult per pipeline stage.
type Results struct {
	Syntax     CheckResult `json:"syntax"`
	MX         CheckResult `json:"mx"`
	SMTP       CheckResult `json:"smtp"`
	Disposable CheckResult `json:"disposableDomain"`
	RoleBased  CheckResult `json:"roleBased"`
}

// ValidationReport is the aggregate verdict for one address.
type ValidationReport struct {
	Email   string  `json:"email"`
	Valid   bool    `json:"valid"`
	Results Results `json:"results"`
}

// CheckSelection enables or disables the optional stages. Syntax always runs.
type CheckSelection struct {
	SMTP       bool `json:"smtp"`
	MX         bool `json:"mx"`
	Disposable bool `json:"disposableDomain"`
	RoleBased  bool `json:"roleBased"`
}

// AllChecks is the default selection.
func AllChecks() CheckSelection {
	return CheckSelection{SMTP: true, MX: true, Disposable: true, RoleBased: true}
}

// Fingerprint serialises the selection into a stable cache-key fragment.
func (s CheckSelection) Fingerprint() string {
	flag := func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	}
	return strings.Join([]string{
		"smtp=" + flag(s.SMTP),
		"mx=" + flag(s.MX),
		"disposable=" + flag(s.Disposable),
		"role=" + flag(s.RoleBased),
	}, ",")
}

// SelectionRequest mirrors the optional "tests" object of a request, where
// an absent key means enabled.
type SelectionRequest struct {
	SMTP       *bool `json:"smtp,omitempty"`
	MX         *bool `json:"mx,omitempty"`
	Disposable *bool `json:"disposableDomain,omitempty"`
	RoleBased  *bool `json:"roleBased,omitempty"`
}

// Resolve applies request overrides on top of AllChecks.
func (r *SelectionRequest) Resolve() CheckSelection {
	sel := AllChecks()
	if r == nil {
		return sel
	}
	if r.SMTP != nil {
		sel.SMTP = *r.SMTP
	}
	if r.MX != nil {
		sel.MX = *r.MX
	}
	if r.Disposable != nil {
		sel.Disposable = *r.Disposable
	}
	if r.RoleBased != nil {
		sel.RoleBased = *r.RoleBased
	}
	return sel
}

// Skipped is the report entry for a stage disabled by the caller.
func Skipped(name string) CheckResult {
	return CheckResult{Passed: true, Message: fmt.Sprintf("Skipped %s check (by request)", name)}
}

// NotRun is the report entry for a stage never reached because an earlier
// stage failed.
func NotRun(name string) CheckResult {
	return CheckResult{Passed: false, Message: fmt.Sprintf("Not run: %s check skipped after an earlier failure", name)}
}

// Pass builds a passing CheckResult.
func Pass(msg string) CheckResult {
	return CheckResult{Passed: true, Message: msg}
}

// Fail builds a failing CheckResult.
func Fail(msg string) CheckResult {
	return CheckResult{Passed: false, Message: msg}
}

// IntPtr is a helper for optional integer fields.
func IntPtr(v int) *int {
	return &v
}
