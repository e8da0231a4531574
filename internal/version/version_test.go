package version

import "testing"

func TestString(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "v1.2.3"
	want := "opticflow v1.2.3 (commit " + GitSHA + ", built " + BuildTime + ")"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
