package lookup

import (
	"fmt"
	"strings"

	"mailprobe/internal/models"
)

// Domains served by Gmail. Role, disposable and MX stages auto-pass for these.
var gmailDomains = map[string]struct{}{
	"gmail.com": {}, "googlemail.com": {},
}

// Common role-based prefixes
var roleAccounts = map[string]struct{}{
	"abuse": {}, "accounting": {}, "accounts": {}, "admin": {}, "administrator": {},
	"all": {}, "billing": {}, "careers": {}, "contact": {}, "customercare": {},
	"customerservice": {}, "dev": {}, "devnull": {}, "dns": {}, "enquiries": {},
	"feedback": {}, "finance": {}, "ftp": {}, "help": {}, "helpdesk": {},
	"hostmaster": {}, "hr": {}, "info": {}, "inquiries": {}, "it": {},
	"jobs": {}, "legal": {}, "list": {}, "mail": {}, "mailer-daemon": {},
	"marketing": {}, "media": {}, "news": {}, "newsletter": {}, "no-reply": {},
	"noc": {}, "noreply": {}, "null": {}, "office": {}, "orders": {},
	"postmaster": {}, "press": {}, "privacy": {}, "recruitment": {}, "root": {},
	"sales": {}, "security": {}, "service": {}, "support": {}, "sysadmin": {},
	"team": {}, "tech": {}, "webmaster": {}, "www": {},
}

// Free mailbox providers used by the domain-reputation dimension.
var consumerDomains = map[string]struct{}{
	"gmail.com": {}, "googlemail.com": {}, "yahoo.com": {}, "ymail.com": {},
	"outlook.com": {}, "hotmail.com": {}, "live.com": {}, "msn.com": {},
	"icloud.com": {}, "me.com": {}, "mac.com": {}, "aol.com": {},
	"protonmail.com": {}, "proton.me": {}, "gmx.com": {}, "gmx.de": {},
	"gmx.net": {}, "web.de": {}, "mail.com": {}, "yandex.com": {},
	"yandex.ru": {}, "zoho.com": {}, "fastmail.com": {}, "tutanota.com": {},
	"mail.ru": {}, "qq.com": {}, "163.com": {}, "naver.com": {},
}

// MX servers that indicate the domain is inactive/parked
var parkedMXHosts = []string{
	"secureserver.net",  // GoDaddy Parking
	"parking.reg.ru",    // Registrar Parking
	"namecheap.com",     // Namecheap Parking
	"domaincontrol.com", // GoDaddy
}

// IsGmailDomain reports whether the domain is served by Gmail.
func IsGmailDomain(domain string) bool {
	_, ok := gmailDomains[strings.ToLower(domain)]
	return ok
}

// IsConsumerDomain reports whether the domain is a known free mailbox provider.
func IsConsumerDomain(domain string) bool {
	_, ok := consumerDomains[strings.ToLower(domain)]
	return ok
}

// MatchRole returns the role prefix a local part matches, if any. A match is
// the exact role or the role followed by '.' or '+'.
func MatchRole(local string) (string, bool) {
	user := strings.ToLower(local)
	if _, ok := roleAccounts[user]; ok {
		return user, true
	}
	if i := strings.IndexAny(user, ".+"); i > 0 {
		if _, ok := roleAccounts[user[:i]]; ok {
			return user[:i], true
		}
	}
	return "", false
}

// CheckRoleBased runs the role-address stage for a syntactically valid address.
func CheckRoleBased(email string) models.CheckResult {
	local, domain, ok := SplitAddress(email)
	if !ok {
		return models.Fail("Cannot check role: malformed address")
	}
	if IsGmailDomain(domain) {
		return models.Pass("Gmail address: role-based check not applicable (Gmail does not issue role accounts)")
	}
	if role, found := MatchRole(local); found {
		res := models.Fail(fmt.Sprintf("Role-based address detected (%s)", role))
		res.MatchedRole = role
		return res
	}
	return models.Pass("Not a role-based address")
}

// IsParkedDomain checks if the MX record points to a known parking service.
func IsParkedDomain(mxHost string) bool {
	host := strings.ToLower(mxHost)
	for _, parked := range parkedMXHosts {
		if strings.Contains(host, parked) {
			return true
		}
	}
	return false
}
