package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rupor-github/gencfg"

	"rtflow/geom"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Document.Format != SourceFormatAuto || cfg.Render.Surface != SurfaceKindText {
		t.Errorf("format = %s, surface = %s", cfg.Document.Format, cfg.Render.Surface)
	}
	if len(cfg.Layout.Containers) != 1 || cfg.Layout.Containers[0].Name != "page" {
		t.Errorf("containers = %+v", cfg.Layout.Containers)
	}
	if !cfg.Layout.Grow || cfg.Layout.MaxContainers < 1 || cfg.Layout.LineHeight != 1 {
		t.Errorf("layout = %+v", cfg.Layout)
	}
	if diff := cmp.Diff([]string{"notes", "comments"}, cfg.Document.Notes.BodyNames); diff != "" {
		t.Errorf("bodies mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(cfg.Render.PageNameTemplate, "{{ .Source }}") {
		t.Errorf("page name template was expanded: %q", cfg.Render.PageNameTemplate)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
document:
  format: markdown
  notes:
    include: false
    bodies: ["notes"]
layout:
  containers:
    - name: left
      width: 30
      height: 40
      padding: {left: 2, top: 1, right: 2, bottom: 1}
    - name: right
      width: 30
      height: 40
      max_lines: 35
  grow: false
render:
  surface: png
  png:
    background: "#000000"
logging:
  console:
    level: debug
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Document.Format != SourceFormatMarkdown || cfg.Document.Notes.Include {
		t.Errorf("document = %+v", cfg.Document)
	}
	want := []ContainerConfig{
		{Name: "left", Width: 30, Height: 40, Padding: geom.Thickness{Left: 2, Top: 1, Right: 2, Bottom: 1}},
		{Name: "right", Width: 30, Height: 40, MaxLines: 35},
	}
	if diff := cmp.Diff(want, cfg.Layout.Containers); diff != "" {
		t.Errorf("containers mismatch (-want +got):\n%s", diff)
	}
	if cfg.Layout.Grow {
		t.Error("Expected Grow to be false")
	}
	if cfg.Render.Surface != SurfaceKindPng || cfg.Render.PNG.Background != "#000000" {
		t.Errorf("render = %+v", cfg.Render)
	}
	// defaults are kept for everything not in the file
	if cfg.Render.PNG.Foreground != "#1a1a1a" || cfg.Document.Images.CellWidth != 8 {
		t.Errorf("defaults were lost: %+v %+v", cfg.Render.PNG, cfg.Document.Images)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nlayout: [unclosed"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"wrong version", "version: 2\n"},
		{"bad format", "document:\n  format: pdf\n"},
		{"no containers", "layout:\n  containers: []\n"},
		{"duplicate container", "layout:\n  containers:\n    - name: a\n      width: 10\n      height: 10\n    - name: a\n      width: 20\n      height: 10\n"},
		{"zero width", "layout:\n  containers:\n    - name: a\n      width: 0\n      height: 10\n"},
		{"negative padding", "layout:\n  containers:\n    - name: a\n      width: 10\n      height: 10\n      padding: {left: -1}\n"},
		{"bad color", "render:\n  png:\n    background: white\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected error")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfiguration(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error = %v, want not exist", err)
		}
	})
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// options are opaque, only check they are accepted
	}
	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepareAndDump(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !strings.Contains(string(data), "containers:") {
		t.Errorf("Prepare() output misses containers section")
	}

	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	out, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}

	// dumped configuration must load back to the same values
	back, err := LoadConfiguration(writeConfig(t, string(out)))
	if err != nil {
		t.Fatalf("LoadConfiguration(dump) error = %v", err)
	}
	if diff := cmp.Diff(cfg, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutContainer(t *testing.T) {
	lc := LayoutConfig{Containers: []ContainerConfig{
		{Name: "first", Width: 10, Height: 5},
		{Name: "page", Width: 20, Height: 8, MaxLines: 3},
	}}

	if got := lc.Container(1); got.Name != "page" {
		t.Errorf("Container(1) = %+v", got)
	}
	want := ContainerConfig{Name: "page-4", Width: 20, Height: 8, MaxLines: 3}
	if diff := cmp.Diff(want, lc.Container(4)); diff != "" {
		t.Errorf("Container(4) mismatch (-want +got):\n%s", diff)
	}
	if lc.Containers[1].Name != "page" {
		t.Error("Container() modified configuration")
	}
	// generated names never repeat configured ones
	lc = LayoutConfig{Containers: []ContainerConfig{{Name: "p-2"}, {Name: "p"}}}
	if got := lc.Container(2).Name; got != "p-2-2" {
		t.Errorf("Container(2).Name = %q, want p-2-2", got)
	}
}

func TestEnums(t *testing.T) {
	for _, name := range SourceFormatNames() {
		f, err := ParseSourceFormat(name)
		if err != nil || f.String() != name {
			t.Errorf("ParseSourceFormat(%q) = %v, %v", name, f, err)
		}
	}
	if _, err := ParseSurfaceKind("svg"); !errors.Is(err, ErrInvalidSurfaceKind) {
		t.Errorf("ParseSurfaceKind(svg) error = %v", err)
	}

	var s SurfaceKind
	if err := s.UnmarshalText([]byte("png")); err != nil || s != SurfaceKindPng {
		t.Errorf("UnmarshalText() = %v, %v", s, err)
	}
	if s.Ext() != ".png" || SurfaceKindText.Ext() != ".txt" {
		t.Errorf("Ext() = %q, %q", s.Ext(), SurfaceKindText.Ext())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown surface")
		}
	}()
	_ = SurfaceKind(42).Ext()
}

func TestCleanFileName(t *testing.T) {
	if got := CleanFileName("a" + string(os.PathSeparator) + "b"); got != "ab" {
		t.Errorf("CleanFileName() = %q", got)
	}
	if got := CleanFileName(string(os.PathSeparator)); got != "_bad_file_name_" {
		t.Errorf("CleanFileName() = %q", got)
	}
}
