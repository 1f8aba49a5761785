package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Default()
	defer SetLogger(original)

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// Setting nil installs a no-op; the previous logger must not fire.
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestSuppressOutput_RestoresPrevious(t *testing.T) {
	original := Default()
	defer SetLogger(original)

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	restore := SuppressOutput()
	Logf("hidden")
	restore()
	Logf("shown %d", 1)

	if len(lines) != 1 || lines[0] != "shown 1" {
		t.Errorf("expected only the post-restore line, got %q", lines)
	}
}

func TestPrefixed(t *testing.T) {
	var got string
	sink := func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	}
	Prefixed(sink, "[optimizer] ")("avg error: %.2fpx", 1.234)
	if got != "[optimizer] avg error: 1.23px" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestPrefixed_NilSinkUsesPackageLogger(t *testing.T) {
	original := Default()
	defer SetLogger(original)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Prefixed(nil, "[x] ")("hello")
	if got != "[x] hello" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestLogf_Default(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()
	Discard("ignored %d", 1)
	Logf("test message: %s", "value")
}
