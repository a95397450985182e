package lookup

import (
	"strings"
	"testing"
)

func TestCheckSyntax(t *testing.T) {
	tests := []struct {
		email      string
		wantPassed bool
		wantMsg    string
	}{
		{"jane.doe@acme.com", true, "Valid email syntax"},
		{"j+tag@sub.example.co.uk", true, ""},
		{"", false, "Email address is empty"},
		{"   ", false, "Email address is empty"},
		{"jane.acme.com", false, "missing the '@'"},
		{"a@b@c.com", false, "more than one '@'"},
		{"@acme.com", false, "Local part (before '@') is empty"},
		{"jane@", false, "Domain (after '@') is empty"},
		{".jane@acme.com", false, "cannot start with a dot"},
		{"jane.@acme.com", false, "cannot end with a dot"},
		{"ja..ne@acme.com", false, "consecutive dots"},
		{"jane@acme..com", false, "Domain cannot contain consecutive dots"},
		{"jane@.acme.com", false, "cannot start or end with a dot"},
		{"jane@-acme.com", false, "hyphen"},
		{"jane@ac_me.com", false, "invalid character"},
		{strings.Repeat("a", 64) + "@acme.com", true, "Valid email syntax"},
		{strings.Repeat("a", 65) + "@acme.com", false, "Local part exceeds 64 characters"},
		{strings.Repeat("a", 64) + "@" + domainOfLength(189), true, "Valid email syntax"},
		{strings.Repeat("a", 64) + "@" + domainOfLength(190), false, "Email address exceeds 254 characters (got 255)"},
		{"jane@" + strings.Repeat("a", 64) + ".com", false, "exceeds 63 characters"},
		{strings.Repeat("a", 60) + "@" + strings.Repeat("b.", 97) + "com", false, "exceeds 254 characters"},
		{"ja ne@acme.com", false, "RFC 5322"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			res := CheckSyntax(tt.email)
			if res.Passed != tt.wantPassed {
				t.Fatalf("passed = %v, want %v (%s)", res.Passed, tt.wantPassed, res.Message)
			}
			if !res.Passed && res.Message == "" {
				t.Error("failed check must carry a message")
			}
			if tt.wantMsg != "" && !strings.Contains(res.Message, tt.wantMsg) {
				t.Errorf("message = %q, want it to contain %q", res.Message, tt.wantMsg)
			}
		})
	}
}

// domainOfLength builds a valid domain of exactly n characters (n >= 5)
// from labels no longer than 63.
func domainOfLength(n int) string {
	var labels []string
	remaining := n - len(".com")
	for remaining > 0 {
		size := min(63, remaining)
		// A remainder of one would leave an empty label after the dot.
		if remaining-size == 1 {
			size--
		}
		labels = append(labels, strings.Repeat("d", size))
		remaining -= size
		if remaining > 0 {
			remaining-- // dot
		}
	}
	return strings.Join(labels, ".") + ".com"
}

func TestDomainOfLength(t *testing.T) {
	for _, n := range []int{5, 67, 68, 189, 190} {
		if got := len(domainOfLength(n)); got != n {
			t.Errorf("len(domainOfLength(%d)) = %d", n, got)
		}
	}
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		in         string
		local, dom string
		ok         bool
	}{
		{"jane@acme.com", "jane", "acme.com", true},
		{"jane", "", "", false},
		{"a@b@c", "", "", false},
		{"@", "", "", true},
	}
	for _, tt := range tests {
		local, dom, ok := SplitAddress(tt.in)
		if local != tt.local || dom != tt.dom || ok != tt.ok {
			t.Errorf("SplitAddress(%q) = %q, %q, %v", tt.in, local, dom, ok)
		}
	}
}
