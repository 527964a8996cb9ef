package arxivid

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantID      string
		wantVersion int
	}{
		{"bare id", "2401.12345", "2401.12345", 0},
		{"bare id with version", "2401.12345v2", "2401.12345", 2},
		{"four digit suffix", "0704.0001v1", "0704.0001", 1},
		{"abs url", "http://arxiv.org/abs/2401.12345v1", "2401.12345", 1},
		{"https abs url", "https://arxiv.org/abs/2401.12345", "2401.12345", 0},
		{"pdf url", "https://arxiv.org/pdf/2401.12345v3.pdf", "2401.12345", 3},
		{"old style", "cs/0112017v1", "cs/0112017", 1},
		{"old style with subject class", "math.GT/0309136", "math.GT/0309136", 0},
		{"old style abs url", "http://arxiv.org/abs/cond-mat/9901001v2", "cond-mat/9901001", 2},
		{"query string stripped", "https://arxiv.org/abs/2401.12345v1?context=cs.LG", "2401.12345", 1},
		{"whitespace", "  2401.12345v2\n", "2401.12345", 2},
		{"garbage", "not-an-id", "", 0},
		{"empty", "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, version := Normalize(tt.in)
			if id != tt.wantID || version != tt.wantVersion {
				t.Errorf("Normalize(%q) = (%q, %d), want (%q, %d)", tt.in, id, version, tt.wantID, tt.wantVersion)
			}
		})
	}
}

func TestValid(t *testing.T) {
	valid := []string{"2401.12345", "0704.0001", "cs/0112017", "math.GT/0309136", "cond-mat/9901001"}
	for _, id := range valid {
		if !Valid(id) {
			t.Errorf("Valid(%q) = false, want true", id)
		}
	}
	invalid := []string{"", "2401.12345v1", "24.12345", "paper.pdf", "CS/0112017"}
	for _, id := range invalid {
		if Valid(id) {
			t.Errorf("Valid(%q) = true, want false", id)
		}
	}
}

func TestLocalNameRoundTrip(t *testing.T) {
	ids := []string{"2401.12345", "cs/0112017", "math.GT/0309136"}
	for _, id := range ids {
		name := LocalName(id)
		got, ok := FromLocalName(name)
		if !ok || got != id {
			t.Errorf("FromLocalName(LocalName(%q)) = (%q, %v)", id, got, ok)
		}
	}
}

func TestPathParamRoundTrip(t *testing.T) {
	ids := []string{"2401.12345", "cs/0112017", "math.GT/0309136", "cond-mat/9901001"}
	for _, id := range ids {
		seg := PathParam(id)
		if strings.Contains(seg, "/") {
			t.Errorf("PathParam(%q) = %q still contains a slash", id, seg)
		}
		if got := FromPathParam(seg); got != id {
			t.Errorf("FromPathParam(PathParam(%q)) = %q", id, got)
		}
	}
}

func TestFromPathParam_passesThroughUnknown(t *testing.T) {
	for _, seg := range []string{"not-an-id", "", "2401.12345v2"} {
		if got := FromPathParam(seg); got != seg {
			t.Errorf("FromPathParam(%q) = %q, want unchanged", seg, got)
		}
	}
}

func TestFromLocalName_rejectsJunk(t *testing.T) {
	for _, name := range []string{"notes.txt", "2401.12345", "random.pdf", ".pdf"} {
		if id, ok := FromLocalName(name); ok {
			t.Errorf("FromLocalName(%q) accepted as %q", name, id)
		}
	}
}

func TestPDFURL(t *testing.T) {
	if got := PDFURL("2401.12345"); got != "https://arxiv.org/pdf/2401.12345" {
		t.Errorf("PDFURL = %q", got)
	}
}
