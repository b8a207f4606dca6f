package dispatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"valet/internal/focus"
	"valet/internal/intent"
	"valet/internal/memory"
	"valet/internal/sched"
)

type fakeSystem struct {
	opened    []string
	closed    []string
	volume    int
	navigated []intent.Intent
	failOpen  bool
}

func (f *fakeSystem) OpenApp(name string) (bool, string) {
	if f.failOpen {
		return false, fmt.Sprintf("I'm sorry, sir. I couldn't open %s.", name)
	}
	f.opened = append(f.opened, name)
	return true, fmt.Sprintf("Opened %s, sir.", name)
}

func (f *fakeSystem) CloseApp(name string) (bool, string) {
	f.closed = append(f.closed, name)
	return true, fmt.Sprintf("Closed %s, sir.", name)
}

func (f *fakeSystem) SetVolume(level int) (bool, string) {
	f.volume = level
	return true, fmt.Sprintf("Volume set to %d%%, sir.", level)
}

func (f *fakeSystem) SetBrightness(level int) (bool, string) {
	return true, fmt.Sprintf("Brightness set to %d%%, sir.", level)
}

func (f *fakeSystem) Status() (bool, string) {
	return true, "All systems nominal, sir."
}

func (f *fakeSystem) Navigate(it intent.Intent) (bool, string) {
	f.navigated = append(f.navigated, it)
	return true, "Navigated, sir."
}

type fakeProfiles struct{ profile string }

func (f *fakeProfiles) SwitchProfile(name string) bool {
	if name != "coding" && name != "research" && name != "general" {
		return false
	}
	f.profile = name
	return true
}
func (f *fakeProfiles) Profile() string        { return f.profile }
func (f *fakeProfiles) Model() string          { return "test-model" }
func (f *fakeProfiles) ProfileNames() []string { return []string{"coding", "general", "research"} }

type fakeRepos struct {
	authed  bool
	created []string
	err     error
}

func (f *fakeRepos) Authenticated() bool { return f.authed }
func (f *fakeRepos) ListRepos(ctx context.Context, limit int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "Your repositories, sir:\n- valet", nil
}
func (f *fakeRepos) CreateRepo(ctx context.Context, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, name)
	return "Repository " + name + " created, sir.", nil
}

type fakeWorkflows struct{ ran []string }

func (f *fakeWorkflows) Execute(name string) (bool, string) {
	f.ran = append(f.ran, name)
	return true, "Workflow complete, sir."
}
func (f *fakeWorkflows) Names() []string { return []string{"coding_session"} }

type fakeClassifier struct{ result intent.Intent }

func (f *fakeClassifier) Detect(ctx context.Context, text string) intent.Intent { return f.result }
func (f *fakeClassifier) Actionable(it intent.Intent) bool {
	return intent.ActionableCategory(it.Category) && it.Confidence >= intent.ConfidenceThreshold
}

type fixture struct {
	d          *Dispatcher
	sys        *fakeSystem
	profiles   *fakeProfiles
	repos      *fakeRepos
	wf         *fakeWorkflows
	classifier *fakeClassifier
	scheduler  *sched.Scheduler
	store      *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	store := memory.NewStore(memory.Paths{
		Preferences: filepath.Join(dir, "prefs.json"),
		History:     filepath.Join(dir, "history.json"),
		Audit:       filepath.Join(dir, "audit.json"),
	}, 10, 100)
	store.Load()

	f := &fixture{
		sys:        &fakeSystem{},
		profiles:   &fakeProfiles{profile: "coding"},
		repos:      &fakeRepos{authed: true},
		wf:         &fakeWorkflows{},
		classifier: &fakeClassifier{result: intent.Intent{Category: intent.CategoryGeneralChat, Source: intent.SourceModel}},
		scheduler:  sched.New(filepath.Join(dir, "tasks.json"), sched.Executors{}),
		store:      store,
	}
	f.d = New(Options{
		Detector:  f.classifier,
		System:    f.sys,
		Scheduler: f.scheduler,
		Workflows: f.wf,
		Repos:     f.repos,
		Profiles:  f.profiles,
		Memory:    store,
	})
	return f
}

func handle(t *testing.T, f *fixture, input string) (bool, string) {
	t.Helper()
	return f.d.Handle(context.Background(), input)
}

func TestFocusOutranksAppOpen(t *testing.T) {
	f := newFixture(t)

	// "start focus ..." must never reach the app bucket's "start <app>" rule.
	handled, resp := handle(t, f, "start focus for 30 minutes")
	if !handled || !strings.Contains(resp, "Focus mode engaged for 30 minutes") {
		t.Fatalf("got (%v, %q)", handled, resp)
	}
	if len(f.sys.opened) != 0 {
		t.Errorf("focus command leaked into app bucket: %v", f.sys.opened)
	}
}

func TestWorkflowOutranksAppOpen(t *testing.T) {
	f := newFixture(t)

	handled, _ := handle(t, f, "start a coding session")
	if !handled {
		t.Fatal("expected the workflow bucket to claim the input")
	}
	if len(f.wf.ran) != 1 || f.wf.ran[0] != "coding_session" {
		t.Errorf("ran = %v", f.wf.ran)
	}
	if len(f.sys.opened) != 0 {
		t.Errorf("workflow command leaked into app bucket: %v", f.sys.opened)
	}
}

func TestReminderEndToEnd(t *testing.T) {
	f := newFixture(t)

	handled, resp := handle(t, f, "Remind me in 10 minutes to check the oven")
	if !handled {
		t.Fatal("reminder should be handled")
	}
	if !strings.Contains(resp, "check the oven") || !strings.Contains(resp, "10 minutes") {
		t.Errorf("resp = %q", resp)
	}

	tasks := f.scheduler.List()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Trigger.DelayMinutes != 10 || tasks[0].Params["message"] != "check the oven" {
		t.Errorf("task = %+v", tasks[0])
	}

	// The handled command lands in the audit log.
	if audit := f.store.AuditLog(); len(audit) != 1 {
		t.Errorf("audit entries = %d, want 1", len(audit))
	}
}

func TestTaskListAndCancel(t *testing.T) {
	f := newFixture(t)

	handle(t, f, "remind me in 5 minutes to stand up")
	handled, resp := handle(t, f, "list my tasks")
	if !handled || !strings.Contains(resp, "reminder_0") {
		t.Fatalf("got (%v, %q)", handled, resp)
	}

	_, resp = handle(t, f, "cancel task reminder_0")
	if !strings.Contains(resp, "cancelled") {
		t.Errorf("resp = %q", resp)
	}
	_, resp = handle(t, f, "cancel task reminder_0")
	if !strings.Contains(resp, "couldn't find") {
		t.Errorf("cancelling twice should apologize, got %q", resp)
	}
}

func TestAppChain(t *testing.T) {
	f := newFixture(t)

	handled, resp := handle(t, f, "open chrome and open notes and close mail")
	if !handled {
		t.Fatal("chain should be handled")
	}
	if len(f.sys.opened) != 2 || len(f.sys.closed) != 1 {
		t.Errorf("opened=%v closed=%v", f.sys.opened, f.sys.closed)
	}
	if !strings.Contains(resp, "chrome") || !strings.Contains(resp, "mail") {
		t.Errorf("resp = %q", resp)
	}
}

func TestMixedChainDropsNonAppClauses(t *testing.T) {
	f := newFixture(t)

	handled, resp := handle(t, f, "open chrome and make me a sandwich")
	if !handled {
		t.Fatal("a chain with one app clause should be handled")
	}
	if len(f.sys.opened) != 1 || f.sys.opened[0] != "chrome" {
		t.Errorf("opened = %v, want just chrome", f.sys.opened)
	}
	if !strings.Contains(resp, "chrome") {
		t.Errorf("resp = %q", resp)
	}
	if strings.Contains(resp, "sandwich") {
		t.Errorf("dropped clause leaked into the reply: %q", resp)
	}
}

func TestChainWithNoAppClausesIsNotClaimed(t *testing.T) {
	f := newFixture(t)

	handled, _ := handle(t, f, "sing something and dance a little")
	if handled {
		t.Error("a chain without app clauses should route to conversation")
	}
	if len(f.sys.opened) != 0 {
		t.Errorf("opened = %v", f.sys.opened)
	}
}

func TestFocusGateVetoesAndEscalates(t *testing.T) {
	f := newFixture(t)

	handle(t, f, "start focus for 25 minutes")

	for i := 1; i <= 3; i++ {
		handled, resp := handle(t, f, "open youtube")
		if !handled {
			t.Fatal("blocked open should still be handled")
		}
		if strings.Contains(resp, "Shall I end focus mode?") {
			t.Errorf("request %d escalated too early: %q", i, resp)
		}
	}

	_, resp := handle(t, f, "open youtube")
	if !strings.Contains(resp, "Shall I end focus mode?") {
		t.Errorf("4th blocked request should escalate, got %q", resp)
	}
	if len(f.sys.opened) != 0 {
		t.Errorf("vetoed apps were opened: %v", f.sys.opened)
	}

	// Allowed apps pass through the gate.
	handle(t, f, "open terminal")
	if len(f.sys.opened) != 1 || f.sys.opened[0] != "terminal" {
		t.Errorf("opened = %v", f.sys.opened)
	}
}

func TestFocusLazyExpiryNotice(t *testing.T) {
	f := newFixture(t)
	f.d.newSession = func(d time.Duration, allowed []string, mode string) *focus.Session {
		return focus.NewSession(0, allowed, mode)
	}

	handle(t, f, "start focus for 25 minutes")

	// The session expired immediately; the next command carries the summary.
	handled, resp := handle(t, f, "open chrome")
	if !handled {
		t.Fatal("expected the open to be handled")
	}
	if !strings.Contains(resp, "Focus session complete") {
		t.Errorf("expected expiry summary prefix, got %q", resp)
	}
	if !strings.Contains(resp, "Opened chrome") {
		t.Errorf("expected the command response too, got %q", resp)
	}
}

func TestExecutorFailureApologizes(t *testing.T) {
	f := newFixture(t)
	f.sys.failOpen = true

	handled, resp := handle(t, f, "open chrome")
	if !handled {
		t.Fatal("failed open is still a handled command")
	}
	if !strings.Contains(resp, "I'm sorry, sir") {
		t.Errorf("resp = %q", resp)
	}
}

func TestVolumeClarifiesWithoutLevel(t *testing.T) {
	f := newFixture(t)

	_, resp := handle(t, f, "turn up the volume")
	if !strings.Contains(resp, "To what level") {
		t.Errorf("resp = %q", resp)
	}

	handle(t, f, "set the volume to 40")
	if f.sys.volume != 40 {
		t.Errorf("volume = %d, want 40", f.sys.volume)
	}
}

func TestRepoCommands(t *testing.T) {
	f := newFixture(t)

	handled, resp := handle(t, f, "create a repo called side-project")
	if !handled || !strings.Contains(resp, "side-project") {
		t.Fatalf("got (%v, %q)", handled, resp)
	}

	f.repos.err = errors.New("boom")
	_, resp = handle(t, f, "list my repos")
	if !strings.Contains(resp, "I'm sorry, sir") {
		t.Errorf("transport failure should apologize, got %q", resp)
	}

	f.repos.authed = false
	_, resp = handle(t, f, "list my repos")
	if !strings.Contains(resp, "GITHUB_TOKEN") {
		t.Errorf("unauthenticated should hint at setup, got %q", resp)
	}
}

func TestModeAndPreferences(t *testing.T) {
	f := newFixture(t)

	_, resp := handle(t, f, "switch to research mode")
	if !strings.Contains(resp, "research") || f.profiles.profile != "research" {
		t.Errorf("resp = %q, profile = %q", resp, f.profiles.profile)
	}

	_, resp = handle(t, f, "what mode are you in")
	if !strings.Contains(resp, "research mode") || !strings.Contains(resp, "coding") {
		t.Errorf("mode query should name the active profile and list the rest, got %q", resp)
	}

	_, resp = handle(t, f, "my name is tony")
	if !strings.Contains(resp, "Tony") {
		t.Errorf("resp = %q", resp)
	}
	if f.store.UserName() != "Tony" {
		t.Errorf("UserName() = %q", f.store.UserName())
	}
}

func TestClassifierFallback(t *testing.T) {
	f := newFixture(t)
	f.classifier.result = intent.Intent{
		Category:   intent.CategorySpotifyPlay,
		Params:     intent.QueryParams{Query: "lofi"},
		Confidence: 0.95,
		Source:     intent.SourceModel,
	}

	handled, resp := handle(t, f, "put on some lofi beats")
	if !handled {
		t.Fatal("actionable classification should be executed")
	}
	if len(f.sys.navigated) != 1 || f.sys.navigated[0].Category != intent.CategorySpotifyPlay {
		t.Errorf("navigated = %v", f.sys.navigated)
	}
	// The navigator's message is the user-facing response, verbatim.
	if resp != "Navigated, sir." {
		t.Errorf("resp = %q, want the navigator message", resp)
	}
}

func TestLowConfidenceRoutesToConversation(t *testing.T) {
	f := newFixture(t)
	f.classifier.result = intent.Intent{
		Category:   intent.CategoryAppOpen,
		Params:     intent.AppParams{App: "Calculator"},
		Confidence: 0.69,
		Source:     intent.SourceModel,
	}

	handled, _ := handle(t, f, "maybe the calculator thing")
	if handled {
		t.Error("confidence below threshold must route to conversation")
	}
	if len(f.sys.navigated) != 0 {
		t.Errorf("navigated = %v", f.sys.navigated)
	}
}

func TestClassifiedOpenRespectsGate(t *testing.T) {
	f := newFixture(t)
	f.classifier.result = intent.Intent{
		Category:   intent.CategoryAppOpen,
		Params:     intent.AppParams{App: "YouTube"},
		Confidence: 0.9,
		Source:     intent.SourceModel,
	}

	handle(t, f, "start focus for 25 minutes")
	handled, resp := handle(t, f, "maybe put youtube on")
	if !handled {
		t.Fatal("blocked classified open is still handled")
	}
	if !strings.Contains(resp, "focus") {
		t.Errorf("resp = %q", resp)
	}
	if len(f.sys.navigated) != 0 {
		t.Errorf("gate bypassed: %v", f.sys.navigated)
	}
}

func TestEmptyInputIsNotHandled(t *testing.T) {
	f := newFixture(t)
	if handled, _ := handle(t, f, "   "); handled {
		t.Error("blank input should route nowhere")
	}
}
