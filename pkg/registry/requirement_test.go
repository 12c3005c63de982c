package registry

import (
	"testing"

	"github.com/Masterminds/semver/v3"
)

func TestRequirementMatches(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		{"^1.0", "1.5.0", true},
		{"^1.0", "2.0.0", false},
		{"1.2", "1.9.3", true},
		{"1.2", "1.1.0", false},
		{"0.3", "0.3.9", true},
		{"0.3", "0.4.0", false},
		{"~1.2.3", "1.2.9", true},
		{"~1.2.3", "1.3.0", false},
		{"=1.0.0", "1.0.0", true},
		{"=1.0.0", "1.0.1", false},
		{">=1.0, <2.0", "1.9.9", true},
		{">= 1.0, < 2.0", "2.0.0", false},
		{"*", "0.0.1", true},
		{"", "3.1.4", true},
		{"1.*", "1.7.0", true},
		{"1.*", "2.0.0", false},
		{"1.2.*", "1.2.7", true},
		{"1.2.*", "1.3.0", false},
		{"^1.0", "1.5.0-beta.1", false},
		{"*", "1.0.0-alpha", false},
		{">=1.0.0-alpha", "1.0.0-beta", true},
		{"1.0.0-next.1", "1.0.0", true},
		{"1.0.0-next.1", "1.2.0", true},
		{"1.0.0-next.1", "1.0.0-next.0", false},
		{"1.0.0-next.1", "2.0.0", false},
		{"0.1.0-exp", "0.1.5", true},
		{"0.1.0-exp", "0.2.0", false},
		{"1.x", "1.9.0", true},
		{"1.x", "2.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.req+" "+tt.version, func(t *testing.T) {
			r, err := ParseRequirement(tt.req)
			if err != nil {
				t.Fatalf("ParseRequirement(%q) error: %v", tt.req, err)
			}
			v := semver.MustParse(tt.version)
			if got := r.Matches(v); got != tt.want {
				t.Errorf("%q.Matches(%s) = %v, want %v", tt.req, tt.version, got, tt.want)
			}
		})
	}
}

func TestRequirementString(t *testing.T) {
	r := MustParseRequirement(" >= 1.0, <2 ")
	if got := r.String(); got != " >= 1.0, <2 " {
		t.Errorf("String() = %q, want declaration unchanged", got)
	}
	if !r.Equal(MustParseRequirement(" >= 1.0, <2 ")) {
		t.Error("identical declarations should be Equal")
	}
	if r.Equal(MustParseRequirement(">=1.0, <2")) {
		t.Error("different declarations should not be Equal")
	}
}

func TestParseRequirementInvalid(t *testing.T) {
	for _, s := range []string{"latest", "^^^", ">=>1"} {
		if _, err := ParseRequirement(s); err == nil {
			t.Errorf("ParseRequirement(%q) should fail", s)
		}
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"1.0.0", false},
		{"0.1.0-alpha.1+build.5", false},
		{"1.0", true},
		{"v1.0.0", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestNilRequirement(t *testing.T) {
	var r *Requirement
	if r.Matches(semver.MustParse("1.0.0")) {
		t.Error("nil requirement should match nothing")
	}
	if r.String() != "" {
		t.Error("nil requirement should format as empty")
	}
}

func TestHasWildcard(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1.*", true},
		{"1.2.x", true},
		{"1.X", true},
		{"1.2.3", false},
		{"1.0.0-next.1", false},
		{"0.1.0-exp", false},
		{"1.0.0+x", false},
		{"1.*-rc.x", true},
	}
	for _, tt := range tests {
		if got := hasWildcard(tt.in); got != tt.want {
			t.Errorf("hasWildcard(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
