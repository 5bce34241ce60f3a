package logging

import "testing"

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": LevelDebug, "": LevelInfo, "INFO": LevelInfo, "warning": LevelWarn, "error": LevelError, "off": LevelOff}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestFormatArgs(t *testing.T) {
	cases := []struct {
		args []any
		want string
	}{
		{nil, ""},
		{[]any{"table", "StudentTable", "rows", 3}, " table=StudentTable rows=3"},
		{[]any{"suffix", " (test students)"}, ` suffix=" (test students)"`},
		{[]any{"orphan"}, " !BADKEY=orphan"},
	}
	for _, tc := range cases {
		if got := FormatArgs(tc.args); got != tc.want {
			t.Fatalf("FormatArgs(%v) = %q want %q", tc.args, got, tc.want)
		}
	}
}

func TestLoggersDoNotPanic(_ *testing.T) {
	for _, l := range []Logger{Noop(), New(LevelOff), New(LevelError)} {
		l.Debug("d", "k", 1)
		l.Info("i")
		l.Warn("w", "k", "v")
		l.Error("e", "err", "boom")
	}
}
