package version

import "testing"

func TestAllowedNoRules(t *testing.T) {
	if !Allowed(nil, Platform{OS: "linux", Arch: "x86_64"}) {
		t.Fatalf("library with no rules should be allowed")
	}
}

func TestAllowedDisallowRule(t *testing.T) {
	rules := []Rule{
		{Action: "allow"},
		{Action: "disallow", OS: &OSMatch{Name: "osx"}},
	}
	if !Allowed(rules, Platform{OS: "linux", Arch: "x86_64"}) {
		t.Fatalf("non-matching disallow rule should leave allow in place")
	}
	if Allowed(rules, Platform{OS: "osx", Arch: "x86_64"}) {
		t.Fatalf("matching disallow rule should flip to disallow")
	}
}

func TestAllowedFoldOrderMatters(t *testing.T) {
	rules := []Rule{
		{Action: "disallow", OS: &OSMatch{Name: "windows"}},
		{Action: "allow", OS: &OSMatch{Name: "windows", Arch: "x86_64"}},
	}
	if !Allowed(rules, Platform{OS: "windows", Arch: "x86_64"}) {
		t.Fatalf("later matching rule should win over earlier matching rule")
	}
	if Allowed(rules, Platform{OS: "windows", Arch: "arm64"}) {
		t.Fatalf("only the disallow rule matches arm64, want disallowed")
	}
}

func TestCurrentPlatform(t *testing.T) {
	p := CurrentPlatform("darwin", "amd64")
	if p.OS != "osx" || p.Arch != "x86_64" {
		t.Fatalf("CurrentPlatform(darwin,amd64) = %+v, want {osx x86_64}", p)
	}
}

func TestAllowedLibraries(t *testing.T) {
	libs := []Library{
		{Name: "a:a:1", Rules: nil},
		{Name: "b:b:1", Rules: []Rule{{Action: "disallow", OS: &OSMatch{Name: "windows"}}}},
	}
	out := AllowedLibraries(libs, Platform{OS: "windows", Arch: "x86_64"})
	if len(out) != 1 || out[0].Name != "a:a:1" {
		t.Fatalf("AllowedLibraries = %+v, want only a:a:1", out)
	}
}
