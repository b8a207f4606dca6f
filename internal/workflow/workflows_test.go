package workflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeApps struct {
	opened []string
	closed []string
	volume int
}

func (f *fakeApps) OpenApp(name string) (bool, string)  { f.opened = append(f.opened, name); return true, "" }
func (f *fakeApps) CloseApp(name string) (bool, string) { f.closed = append(f.closed, name); return true, "" }
func (f *fakeApps) SetVolume(level int) (bool, string)  { f.volume = level; return true, "" }

type fakeModes struct{ mode string }

func (f *fakeModes) SwitchProfile(name string) bool {
	if name == "" {
		return false
	}
	f.mode = name
	return true
}

func TestBuiltinsRegistered(t *testing.T) {
	e := NewExecutor(&fakeApps{}, &fakeModes{})
	names := e.Names()
	for _, want := range []string{"coding_session", "research_session", "study_session", "end_session"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("builtin %q not registered, have %v", want, names)
		}
	}
}

func TestExecuteCodingSession(t *testing.T) {
	apps := &fakeApps{}
	modes := &fakeModes{}
	e := NewExecutor(apps, modes)

	ok, msg := e.Execute("coding_session")
	if !ok {
		t.Fatalf("msg = %q", msg)
	}
	if len(apps.opened) != 3 {
		t.Errorf("opened = %v", apps.opened)
	}
	if modes.mode != "coding" {
		t.Errorf("mode = %q", modes.mode)
	}
	if apps.volume != 40 {
		t.Errorf("volume = %d", apps.volume)
	}
	if !strings.Contains(msg, "Workflow complete, sir") {
		t.Errorf("msg = %q", msg)
	}
}

func TestExecuteUnknown(t *testing.T) {
	e := NewExecutor(&fakeApps{}, &fakeModes{})
	ok, msg := e.Execute("nonexistent")
	if ok {
		t.Error("unknown workflow should fail")
	}
	if !strings.Contains(msg, "Available:") {
		t.Errorf("msg = %q", msg)
	}
}

func TestLoadDirOverridesAndSkipsMalformed(t *testing.T) {
	dir := t.TempDir()

	good := `name: coding_session
description: Custom coding setup
steps:
  - action: open_app
    app: Zed
`
	if err := os.WriteFile(filepath.Join(dir, "coding.yaml"), []byte(good), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("just a scalar, not a workflow"), 0644); err != nil {
		t.Fatal(err)
	}

	apps := &fakeApps{}
	e := NewExecutor(apps, &fakeModes{})
	if err := e.LoadDir(dir); err != nil {
		t.Fatal(err)
	}

	if got := e.Describe("coding_session"); got != "Custom coding setup" {
		t.Errorf("override did not take: %q", got)
	}

	e.Execute("coding_session")
	if len(apps.opened) != 1 || apps.opened[0] != "Zed" {
		t.Errorf("opened = %v", apps.opened)
	}
}

func TestLoadDirNamesFromFilename(t *testing.T) {
	dir := t.TempDir()
	wf := `description: No name field
steps:
  - action: open_app
    app: Notes
`
	if err := os.WriteFile(filepath.Join(dir, "evening.yml"), []byte(wf), 0644); err != nil {
		t.Fatal(err)
	}

	e := NewExecutor(&fakeApps{}, &fakeModes{})
	if err := e.LoadDir(dir); err != nil {
		t.Fatal(err)
	}
	if got := e.Describe("evening"); got != "No name field" {
		t.Errorf("Describe(evening) = %q", got)
	}
}
