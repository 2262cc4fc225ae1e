package index

import "testing"

func TestFingerprintKnownValues(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hello world", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	}
	for _, c := range cases {
		if got := Fingerprint(c.in); got != c.want {
			t.Errorf("Fingerprint(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestIsFingerprint(t *testing.T) {
	if !isFingerprint(Fingerprint("anything")) {
		t.Error("real fingerprints must validate")
	}
	bad := []string{
		"",
		"abc",
		"zz" + Fingerprint("x")[2:],                    // non-hex characters
		Fingerprint("x")[:63],                          // too short
		Fingerprint("x") + "0",                         // too long
		"B94D27B9934D3E08A52E52D7DA7DABFAC484EFE37A5380EE9088F7ACE2EFCDE9", // uppercase
	}
	for _, s := range bad {
		if isFingerprint(s) {
			t.Errorf("isFingerprint(%q) should be false", s)
		}
	}
}

func TestFingerprintDistinguishesContent(t *testing.T) {
	a := Fingerprint("one")
	b := Fingerprint("two")
	if a == b {
		t.Error("distinct content produced the same fingerprint")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
	if a != Fingerprint("one") {
		t.Error("fingerprint is not deterministic")
	}
}
