package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// small keeps headless bakes fast
var small = []string{"-width", "12", "-height", "5", "-frames", "4", "-seed", "9"}

func runArgs(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	inTempDir(t)
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero width", []string{"-width", "0", "-report"}},
		{"bad glyph", []string{"-glyphs", ". ## @", "-report"}},
		{"bad mode", []string{"-mode", "4d", "-report"}},
		{"unknown flag", []string{"-colour", "red"}},
		{"missing preset", []string{"-config", "nope.toml", "-report"}},
		{"tiny detail", []string{"-detail", "1e-20", "-report"}},
		{"tiny detail 2d", []string{"-detail", "1e-20", "-mode", "2d"}},
		{"huge speed", []string{"-speed", "1e19", "-report"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, _ := runArgs(t, tt.args...)
			if code != exitConfig {
				t.Errorf("exit = %d, want %d", code, exitConfig)
			}
			if stdout != "" {
				t.Errorf("stdout = %q", stdout)
			}
		})
	}
}

func TestRunVolumeTooLarge(t *testing.T) {
	code, _, stderr := runArgs(t, append(small, "-max-cells", "10", "-report")...)
	if code != exitFatal {
		t.Errorf("exit = %d, want %d", code, exitFatal)
	}
	if !strings.Contains(stderr, "too large") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunDumpConfig(t *testing.T) {
	code, stdout, _ := runArgs(t, "-dump-config", "-width", "33", "-tint")
	if code != exitOK {
		t.Fatalf("exit = %d", code)
	}
	for _, want := range []string{"width = 33", "[tint]", "enabled = true"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("dump missing %q:\n%s", want, stdout)
		}
	}
}

func TestRunPresetThenFlags(t *testing.T) {
	inTempDir(t)
	os.WriteFile("preset.toml", []byte("width = 40\nheight = 9\n"), 0644)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-config", "preset.toml", "-height", "3", "-dump-config"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("exit = %d: %s", code, stderr.String())
	}
	if out := stdout.String(); !strings.Contains(out, "width = 40") || !strings.Contains(out, "height = 3") {
		t.Errorf("precedence lost:\n%s", out)
	}
}

func TestRunHeadlessExports(t *testing.T) {
	code, stdout, stderr := runArgs(t, append(small, "-gif", "out.gif", "-apng", "out.png", "-report")...)
	if code != exitOK {
		t.Fatalf("exit = %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "BAKE REPORT") || !strings.Contains(stdout, "12x5") {
		t.Errorf("report:\n%s", stdout)
	}
	for _, name := range []string{"out.gif", "out.png"} {
		info, err := os.Stat(filepath.Join(".", name))
		if err != nil || info.Size() == 0 {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestRunExportFailure(t *testing.T) {
	code, _, stderr := runArgs(t, append(small, "-gif", filepath.Join("missing", "out.gif"))...)
	if code != exitFatal {
		t.Errorf("exit = %d, want %d", code, exitFatal)
	}
	if !strings.Contains(stderr, "gif") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunSeedIsReproducible(t *testing.T) {
	_, first, _ := runArgs(t, append(small, "-report")...)
	_, second, _ := runArgs(t, append(small, "-report")...)
	// Bake time differs between runs; compare the rest
	strip := func(s string) string {
		var keep []string
		for _, line := range strings.Split(s, "\n") {
			if !strings.Contains(line, "Bake time") {
				keep = append(keep, line)
			}
		}
		return strings.Join(keep, "\n")
	}
	if strip(first) != strip(second) {
		t.Errorf("same seed, different reports:\n%s\n---\n%s", first, second)
	}
}

func TestHeadless(t *testing.T) {
	tests := []struct {
		opt  options
		want bool
	}{
		{options{}, false},
		{options{report: true}, true},
		{options{gifPath: "a.gif"}, true},
		{options{apngPath: "a.png", play: true}, false},
	}
	for _, tt := range tests {
		if got := tt.opt.headless(); got != tt.want {
			t.Errorf("%+v.headless() = %v, want %v", tt.opt, got, tt.want)
		}
	}
}
