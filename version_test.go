package crawler

import "testing"

func TestVersionInfo(t *testing.T) {
	defer func(c, d string) { GitCommit, BuildDate = c, d }(GitCommit, BuildDate)

	GitCommit, BuildDate = "", ""
	if got := VersionInfo(); got != "go-crawler "+Version {
		t.Errorf("VersionInfo() = %q", got)
	}

	GitCommit, BuildDate = "0123456789abcdef", "2026-10-01"
	want := "go-crawler " + Version + " (01234567) built 2026-10-01"
	if got := VersionInfo(); got != want {
		t.Errorf("VersionInfo() = %q, want %q", got, want)
	}

	GitCommit = "abc"
	if got := VersionInfo(); got != "go-crawler "+Version+" (abc) built 2026-10-01" {
		t.Errorf("short commit: %q", got)
	}
}
