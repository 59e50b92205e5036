package protection

import "testing"

func TestFromRWXFoldsWWithoutR(t *testing.T) {
	got := FromRWX(false, true, false)
	if got != RW {
		t.Errorf("FromRWX(false, true, false) = %v, want %v", got, RW)
	}
}

func TestFromRWXAllCombinations(t *testing.T) {
	cases := []struct {
		r, w, x bool
		want    Protection
	}{
		{false, false, false, None},
		{true, false, false, R},
		{false, false, true, X},
		{true, true, false, RW},
		{true, false, true, RX},
		{true, true, true, RWX},
	}
	for _, c := range cases {
		if got := FromRWX(c.r, c.w, c.x); got != c.want {
			t.Errorf("FromRWX(%v, %v, %v) = %v, want %v", c.r, c.w, c.x, got, c.want)
		}
	}
}

func TestFromPerms(t *testing.T) {
	cases := []struct {
		perms string
		want  Protection
	}{
		{"rwxp", RWX},
		{"r-xp", RX},
		{"rw-p", RW},
		{"r--p", R},
		{"---p", None},
		{"", None},
		{"r", R},
	}
	for _, c := range cases {
		if got := FromPerms(c.perms); got != c.want {
			t.Errorf("FromPerms(%q) = %v, want %v", c.perms, got, c.want)
		}
	}
}

func TestProtectionPredicates(t *testing.T) {
	cases := []struct {
		p                      Protection
		readable, writable, executable bool
	}{
		{None, false, false, false},
		{R, true, false, false},
		{X, false, false, true},
		{RW, true, true, false},
		{RX, true, false, true},
		{RWX, true, true, true},
	}
	for _, c := range cases {
		if got := c.p.Readable(); got != c.readable {
			t.Errorf("%v.Readable() = %v, want %v", c.p, got, c.readable)
		}
		if got := c.p.Writable(); got != c.writable {
			t.Errorf("%v.Writable() = %v, want %v", c.p, got, c.writable)
		}
		if got := c.p.Executable(); got != c.executable {
			t.Errorf("%v.Executable() = %v, want %v", c.p, got, c.executable)
		}
	}
}

func TestProtectionString(t *testing.T) {
	cases := map[Protection]string{
		None: "none",
		R:    "r",
		X:    "x",
		RW:   "rw",
		RX:   "rx",
		RWX:  "rwx",
	}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", p, got, want)
		}
	}
	if got := Protection(99).String(); got != "protection(99)" {
		t.Errorf("String() for unknown value = %q, want %q", got, "protection(99)")
	}
}
