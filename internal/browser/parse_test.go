package browser

import "testing"

func TestUsernameFromHref(t *testing.T) {
	tests := []struct {
		href     string
		expected string
		ok       bool
	}{
		{"/someuser/", "someuser", true},
		{"/some.user_99/", "some.user_99", true},
		{"https://www.instagram.com/someuser/", "someuser", true},
		{"https://www.instagram.com/someuser/?hl=en", "someuser", true},
		{"/explore/", "", false},
		{"/p/abc123/", "", false},
		{"/accounts/login/", "", false},
		{"/someuser/followers/", "", false},
		{"", "", false},
		{"/", "", false},
		{"/bad user/", "", false},
	}

	for _, test := range tests {
		got, ok := usernameFromHref(test.href)
		if ok != test.ok || got != test.expected {
			t.Errorf("usernameFromHref(%q) = (%q, %v), expected (%q, %v)",
				test.href, got, ok, test.expected, test.ok)
		}
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		text     string
		expected int
		ok       bool
	}{
		{"1,234", 1234, true},
		{"1,234 followers", 1234, true},
		{"527", 527, true},
		{"12.5K", 12500, true},
		{"1.2M", 1200000, true},
		{"0", 0, true},
		{"", 0, false},
		{"lots", 0, false},
		{"1.2.3", 0, false},
	}

	for _, test := range tests {
		got, ok := parseCount(test.text)
		if ok != test.ok || got != test.expected {
			t.Errorf("parseCount(%q) = (%d, %v), expected (%d, %v)",
				test.text, got, ok, test.expected, test.ok)
		}
	}
}
