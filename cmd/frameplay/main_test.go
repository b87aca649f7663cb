package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/user/framegrab/pkg/config"
)

func TestRun_MissingInput(t *testing.T) {
	code := -1
	orig := cli.OsExiter
	cli.OsExiter = func(c int) { code = c }
	defer func() { cli.OsExiter = orig }()

	var stdout bytes.Buffer
	app := newApp()
	app.Writer = &stdout

	if err := app.Run([]string{"frameplay", "a.mp4", "b.mp4"}); err == nil {
		t.Error("expected an error with two inputs")
	}
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), "frameplay [flags] <input-path>") {
		t.Errorf("expected usage on stdout, got %q", stdout.String())
	}
}

func parseConfig(t *testing.T, args ...string) config.Config {
	t.Helper()
	var cfg config.Config
	app := newApp()
	app.Action = func(c *cli.Context) error {
		var err error
		cfg, err = buildConfig(c)
		return err
	}
	if err := app.Run(append([]string{"frameplay"}, args...)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return cfg
}

func TestBuildConfig_UncappedByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frameplay.yaml")
	if err := os.WriteFile(path, []byte("max_frames: 7\nwindow_title: from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := parseConfig(t, "--config", path, "in.mp4")
	if cfg.MaxFrames != 0 {
		t.Errorf("expected no frame cap, got %d", cfg.MaxFrames)
	}
	if cfg.WindowTitle != "from-file" {
		t.Errorf("expected title from file, got %q", cfg.WindowTitle)
	}
}

func TestBuildConfig_Flags(t *testing.T) {
	cfg := parseConfig(t, "-t", "movie", "-n", "10", "--backend", "native", "in.mp4")
	if cfg.WindowTitle != "movie" || cfg.MaxFrames != 10 || cfg.Backend != "native" {
		t.Errorf("unexpected config %+v", cfg)
	}
}
