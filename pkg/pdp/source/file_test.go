package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"mercator-hq/xacmlcore/pkg/pdp"
	"mercator-hq/xacmlcore/pkg/telemetry/logging"
	"mercator-hq/xacmlcore/pkg/xacml/function"
	"mercator-hq/xacmlcore/pkg/xacml/parser"
)


func newTestParser(t *testing.T) *parser.Parser {
	t.Helper()
	reg, err := function.NewStandardRegistry()
	if err != nil {
		t.Fatalf("NewStandardRegistry() failed: %v", err)
	}
	return parser.NewParser(reg)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
}

func ruleDoc(name string) string {
	return "name: " + name + "\nrules:\n  - id: allow\n    effect: Permit\n"
}

func names(ruleSets []*pdp.RuleSet) []string {
	out := make([]string, len(ruleSets))
	for i, rs := range ruleSets {
		out[i] = rs.Name
	}
	return out
}

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), ruleDoc("beta"))
	writeFile(t, filepath.Join(dir, "a.yml"), ruleDoc("alpha"))
	writeFile(t, filepath.Join(dir, "nested", "c.yaml"), ruleDoc("gamma"))
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a rule file")
	writeFile(t, filepath.Join(dir, ".hidden.yaml"), "{{ broken")
	writeFile(t, filepath.Join(dir, ".git", "d.yaml"), "{{ broken")

	tests := []struct {
		name string
		path string
		want []string
	}{
		{name: "directory", path: dir, want: []string{"alpha", "beta", "gamma"}},
		{name: "single file", path: filepath.Join(dir, "b.yaml"), want: []string{"beta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewFileSource(tt.path, newTestParser(t), logging.Discard())
			ruleSets, err := src.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			got := names(ruleSets)
			if len(got) != len(tt.want) {
				t.Fatalf("Load() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Load()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFileSource_Load_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.yaml"), ruleDoc("good"))
	writeFile(t, filepath.Join(dir, "bad.yaml"), "rules:\n  - id: x\n    effect: Maybe\n")

	src := NewFileSource(dir, newTestParser(t), logging.Discard())
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("Load() expected error for invalid document")
	} else {
		var list *parser.ErrorList
		if !errors.As(err, &list) {
			t.Errorf("Load() error = %T, want wrapped *parser.ErrorList", err)
		}
	}

	missing := NewFileSource(filepath.Join(dir, "missing"), newTestParser(t), logging.Discard())
	if _, err := missing.Load(context.Background()); err == nil {
		t.Error("Load() expected error for missing path")
	}
}

func TestFileSource_Load_EmptyDirectory(t *testing.T) {
	src := NewFileSource(t.TempDir(), newTestParser(t), logging.Discard())
	ruleSets, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(ruleSets) != 0 {
		t.Errorf("Load() = %v, want none", names(ruleSets))
	}
}

func TestFileSource_String(t *testing.T) {
	src := NewFileSource("rules", nil, nil)
	if got := src.String(); got != "file:rules" {
		t.Errorf("String() = %q, want %q", got, "file:rules")
	}
}

func receive(t *testing.T, events <-chan pdp.SourceEvent) pdp.SourceEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return pdp.SourceEvent{}
}

func drain(events <-chan pdp.SourceEvent) {
	for range events {
	}
}

func TestFileSource_Watch_Directory(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), ruleDoc("alpha"))

	src := NewFileSource(dir, newTestParser(t), logging.Discard()).WithDebounce(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	events, err := src.Watch(ctx)
	if err != nil {
		cancel()
		t.Fatalf("Watch() failed: %v", err)
	}

	writeFile(t, filepath.Join(dir, "a.yaml"), ruleDoc("alpha-2"))
	ev := receive(t, events)
	if ev.Type == pdp.SourceEventError {
		t.Fatalf("unexpected error event: %v", ev.Error)
	}
	if filepath.Base(ev.Path) != "a.yaml" {
		t.Errorf("Path = %q, want a.yaml", ev.Path)
	}

	cancel()
	drain(events)
}

func TestFileSource_Watch_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "a.yaml")
	writeFile(t, target, ruleDoc("alpha"))

	src := NewFileSource(target, newTestParser(t), logging.Discard()).WithDebounce(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	events, err := src.Watch(ctx)
	if err != nil {
		cancel()
		t.Fatalf("Watch() failed: %v", err)
	}

	writeFile(t, filepath.Join(dir, "other.yaml"), ruleDoc("other"))
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, target, ruleDoc("alpha-2"))

	ev := receive(t, events)
	if filepath.Clean(ev.Path) != filepath.Clean(target) {
		t.Errorf("Path = %q, want %q", ev.Path, target)
	}

	cancel()
	drain(events)
}

func TestFileSource_Watch_ClosesOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := NewFileSource(t.TempDir(), newTestParser(t), logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	events, err := src.Watch(ctx)
	if err != nil {
		cancel()
		t.Fatalf("Watch() failed: %v", err)
	}
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			drain(events)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("event channel not closed after cancel")
	}
}

func TestFileSource_Watch_MissingPath(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing"), newTestParser(t), logging.Discard())
	if _, err := src.Watch(context.Background()); err == nil {
		t.Error("Watch() expected error for missing path")
	}
}
