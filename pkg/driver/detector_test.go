package driver

import "testing"

func TestDetectorMatch(t *testing.T) {
	d := NewDetector([]string{"Action Blocked", "Please Wait"})

	phrase, ok := d.Match([]string{"everything fine", "action blocked for a while"})
	if !ok || phrase != "Action Blocked" {
		t.Errorf("Match = (%q, %v), expected (Action Blocked, true)", phrase, ok)
	}

	if _, ok := d.Match([]string{"nothing to see"}); ok {
		t.Error("Match reported a phrase for clean input")
	}

	if _, ok := d.Match(nil); ok {
		t.Error("Match reported a phrase for empty input")
	}
}

func TestDetectorScan(t *testing.T) {
	d := NewDetector([]string{"We restrict certain activity"})

	page := "Some header\nwe restrict certain activity to protect our community\nfooter"
	phrase, ok := d.Scan(page)
	if !ok || phrase != "We restrict certain activity" {
		t.Errorf("Scan = (%q, %v), expected configured phrase", phrase, ok)
	}

	if _, ok := d.Scan("all quiet"); ok {
		t.Error("Scan reported a phrase for clean text")
	}
}
