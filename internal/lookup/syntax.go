package lookup

import (
	"fmt"
	"strings"

	"github.com/badoux/checkmail"

	"mailprobe/internal/models"
)

const (
	MaxAddressLength   = 254
	MaxLocalPartLength = 64
	MaxDomainLength    = 253
	MaxLabelLength     = 63
)

// SplitAddress splits on the single '@'. ok is false for zero or multiple '@'.
func SplitAddress(email string) (local, domain string, ok bool) {
	if strings.Count(email, "@") != 1 {
		return "", "", false
	}
	at := strings.IndexByte(email, '@')
	return email[:at], email[at+1:], true
}

// CheckSyntax validates the structural shape of an address. Each failure
// reason gets its own message.
func CheckSyntax(email string) models.CheckResult {
	if strings.TrimSpace(email) == "" {
		return models.Fail("Email address is empty")
	}
	if len(email) > MaxAddressLength {
		return models.Fail(fmt.Sprintf("Email address exceeds %d characters (got %d)", MaxAddressLength, len(email)))
	}

	switch n := strings.Count(email, "@"); {
	case n == 0:
		return models.Fail("Email address is missing the '@' symbol")
	case n > 1:
		return models.Fail("Email address contains more than one '@' symbol")
	}

	local, domain, _ := SplitAddress(email)
	if res, ok := checkLocalPart(local); !ok {
		return res
	}
	if res, ok := checkDomainPart(domain); !ok {
		return res
	}

	// Character classes and label structure, RFC 5322 dot-atom shape.
	if err := checkmail.ValidateFormat(email); err != nil {
		return models.Fail("Email address contains characters not allowed by RFC 5322")
	}

	return models.Pass("Valid email syntax")
}

func checkLocalPart(local string) (models.CheckResult, bool) {
	switch {
	case len(local) == 0:
		return models.Fail("Local part (before '@') is empty"), false
	case len(local) > MaxLocalPartLength:
		return models.Fail(fmt.Sprintf("Local part exceeds %d characters (got %d)", MaxLocalPartLength, len(local))), false
	case strings.HasPrefix(local, "."):
		return models.Fail("Local part cannot start with a dot"), false
	case strings.HasSuffix(local, "."):
		return models.Fail("Local part cannot end with a dot"), false
	case strings.Contains(local, ".."):
		return models.Fail("Local part cannot contain consecutive dots"), false
	}
	return models.CheckResult{}, true
}

func checkDomainPart(domain string) (models.CheckResult, bool) {
	switch {
	case len(domain) == 0:
		return models.Fail("Domain (after '@') is empty"), false
	case len(domain) > MaxDomainLength:
		return models.Fail(fmt.Sprintf("Domain exceeds %d characters (got %d)", MaxDomainLength, len(domain))), false
	case strings.Contains(domain, ".."):
		return models.Fail("Domain cannot contain consecutive dots"), false
	case strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, "."):
		return models.Fail("Domain cannot start or end with a dot"), false
	}

	for _, label := range strings.Split(domain, ".") {
		if len(label) > MaxLabelLength {
			return models.Fail(fmt.Sprintf("Domain label %q exceeds %d characters", label, MaxLabelLength)), false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return models.Fail(fmt.Sprintf("Domain label %q cannot start or end with a hyphen", label)), false
		}
		for _, r := range label {
			if !isLabelRune(r) {
				return models.Fail(fmt.Sprintf("Domain label %q contains invalid character %q", label, r)), false
			}
		}
	}
	return models.CheckResult{}, true
}

func isLabelRune(r rune) bool {
	return r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
