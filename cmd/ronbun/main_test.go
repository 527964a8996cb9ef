package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/ronbun/internal/cli"
)

func TestSearchArgsReorder(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want []string
	}{
		{"flags trailing the query", []string{"neural scaling laws", "-k", "3"}, []string{"-k", "3", "neural scaling laws"}},
		{"flags already leading", []string{"-k", "3", "neural scaling laws"}, []string{"-k", "3", "neural scaling laws"}},
		{"bare query", []string{"neural scaling laws"}, []string{"neural scaling laws"}},
		{"no arguments", nil, nil},
		{"two positionals then flags", []string{"state", "space", "-output", "json"}, []string{"-output", "json", "state", "space"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := searchArgsReorder(tc.args)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Errorf("searchArgsReorder(%v) = %v, want %v", tc.args, got, tc.want)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"attention"}, "attention"},
		{[]string{"sparse", "attention"}, "sparse attention"},
		{[]string{"sparse attention"}, "sparse attention"},
		{[]string{"graph", "neural", "networks"}, "graph neural networks"},
		{nil, ""},
		{[]string{"  ", "\t"}, ""},
	}
	for _, tc := range cases {
		if got := buildSearchQuery(tc.args); got != tc.want {
			t.Errorf("buildSearchQuery(%v) = %q, want %q", tc.args, got, tc.want)
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    cli.OutputFormat
		wantErr bool
	}{
		{"text", cli.OutputText, false},
		{"compact", cli.OutputCompact, false},
		{"json", cli.OutputJSON, false},
		{"yaml", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := parseOutputFormat(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseOutputFormat(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("parseOutputFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// writeTestConfig drops a config.yaml with the given body into dir.
func writeTestConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit path is used verbatim", func(t *testing.T) {
		path := writeTestConfig(t, t.TempDir(), "server:\n  host: \"127.0.0.1\"\n  port: 9000\n")
		cfg, resolved, err := loadConfig(path)
		if err != nil {
			t.Fatal(err)
		}
		if resolved != path {
			t.Errorf("resolved path = %s, want %s", resolved, path)
		}
		if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
			t.Errorf("unexpected server config: %+v", cfg.Server)
		}
	})

	t.Run("default path prefers working directory", func(t *testing.T) {
		dir := t.TempDir()
		path := writeTestConfig(t, dir, "debug: true\n")
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = os.Chdir(wd) }()
		if err := os.Chdir(dir); err != nil {
			t.Fatal(err)
		}

		cfg, resolved, err := loadConfig(defaultConfigPath)
		if err != nil {
			t.Fatal(err)
		}
		// t.TempDir may sit behind a symlink (notably on macOS), so compare
		// canonical paths.
		gotCanon, _ := filepath.EvalSymlinks(resolved)
		wantCanon, _ := filepath.EvalSymlinks(path)
		if gotCanon != wantCanon {
			t.Errorf("resolved = %s, want the cwd config %s", resolved, path)
		}
		if !cfg.Debug {
			t.Error("debug flag from the cwd config was lost")
		}
	})

	t.Run("missing config errors", func(t *testing.T) {
		if _, _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected an error for a missing explicit config")
		}
	})
}
