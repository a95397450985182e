package lookup

import "testing"

func TestMatchRole(t *testing.T) {
	tests := []struct {
		local    string
		wantRole string
		wantOK   bool
	}{
		{"admin", "admin", true},
		{"Support", "support", true},
		{"sales.emea", "sales", true},
		{"info+news", "info", true},
		{"no-reply", "no-reply", true},
		{"jane", "", false},
		{"administratorx", "", false},
		{"adminjane", "", false},
		{".admin", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.local, func(t *testing.T) {
			role, ok := MatchRole(tt.local)
			if role != tt.wantRole || ok != tt.wantOK {
				t.Errorf("MatchRole(%q) = %q, %v; want %q, %v", tt.local, role, ok, tt.wantRole, tt.wantOK)
			}
		})
	}
}

func TestCheckRoleBased(t *testing.T) {
	res := CheckRoleBased("admin@acme.com")
	if res.Passed || res.MatchedRole != "admin" {
		t.Errorf("admin@acme.com: %+v", res)
	}
	if res.Message != "Role-based address detected (admin)" {
		t.Errorf("message = %q", res.Message)
	}

	if res := CheckRoleBased("admin@gmail.com"); !res.Passed {
		t.Errorf("gmail addresses should bypass the role check: %+v", res)
	}
	if res := CheckRoleBased("jane@acme.com"); !res.Passed {
		t.Errorf("jane@acme.com: %+v", res)
	}
}

func TestDomainClassifiers(t *testing.T) {
	if !IsGmailDomain("GoogleMail.com") {
		t.Error("googlemail.com should be a Gmail domain")
	}
	if IsGmailDomain("gmail.co") {
		t.Error("gmail.co is not a Gmail domain")
	}
	if !IsConsumerDomain("outlook.com") || IsConsumerDomain("acme.com") {
		t.Error("consumer domain classification is wrong")
	}
	if !IsParkedDomain("mx1.PARKING.reg.ru") || IsParkedDomain("aspmx.l.google.com") {
		t.Error("parked MX classification is wrong")
	}
}
