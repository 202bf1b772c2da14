package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	Version, Commit, Date = "dev", "none", "unknown"
	fromBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
		},
	})
	if Version != "v0.3.1" || Commit != "abc123" || Date != "2024-05-01T10:00:00Z" {
		t.Errorf("got %s %s %s", Version, Commit, Date)
	}
}

func TestFromBuildInfoKeepsLdflags(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	Version, Commit, Date = "v1.0.0", "deadbeef", "2024-01-01"
	fromBuildInfo(&debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
	})
	if Version != "v1.0.0" || Commit != "deadbeef" {
		t.Errorf("ldflags values overwritten: %s %s", Version, Commit)
	}
}

func TestTemplate(t *testing.T) {
	if !strings.Contains(Template(), "{{.Name}} version "+Version) {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.HasPrefix(String(), "version: "+Version) {
		t.Errorf("String() = %q", String())
	}
}
