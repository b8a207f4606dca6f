package intent

import (
	"testing"
)

func TestNormalizeStripsPoliteness(t *testing.T) {
	cases := map[string]string{
		"Please open Chrome":          "open chrome",
		"Could you please open Notes": "open notes",
		"  OPEN TERMINAL  ":           "open terminal",
		"would you mind open mail":    "open mail",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStripFillers(t *testing.T) {
	cases := map[string]string{
		"the chrome app":       "chrome",
		"chrome for me please": "chrome",
		"a calculator":         "calculator",
		"visual studio code":   "visual studio code",
	}
	for in, want := range cases {
		if got := StripFillers(in); got != want {
			t.Errorf("StripFillers(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFirstLevel(t *testing.T) {
	cases := []struct {
		in    string
		level int
		ok    bool
	}{
		{"set volume to 50", 50, true},
		{"volume 50%", 50, true},
		{"volume to 0", 0, true},
		{"volume to 100", 100, true},
		{"volume to 150", 0, false},
		{"turn the volume up", 0, false},
	}
	for _, tc := range cases {
		level, ok := FirstLevel(tc.in)
		if ok != tc.ok || level != tc.level {
			t.Errorf("FirstLevel(%q) = (%d, %v), want (%d, %v)", tc.in, level, ok, tc.level, tc.ok)
		}
	}
}

func TestSplitChain(t *testing.T) {
	parts := SplitChain("open chrome and open notes and close mail")
	want := []string{"open chrome", "open notes", "close mail"}
	if len(parts) != len(want) {
		t.Fatalf("got %d parts, want %d", len(parts), len(want))
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d = %q, want %q", i, parts[i], want[i])
		}
	}
}

func TestMatchReminderBothForms(t *testing.T) {
	it, ok := MatchReminder("remind me in 10 minutes to check the oven")
	if !ok {
		t.Fatal("expected a match")
	}
	p := it.Params.(ReminderParams)
	if p.DelayMinutes != 10 || p.Message != "check the oven" {
		t.Errorf("got %+v", p)
	}
	if it.Confidence != 1.0 || it.Source != SourceRule {
		t.Errorf("rule intent should carry confidence 1.0, got %+v", it)
	}

	it, ok = MatchReminder("remind me to stretch in 45 minutes")
	if !ok {
		t.Fatal("expected a match")
	}
	p = it.Params.(ReminderParams)
	if p.DelayMinutes != 45 || p.Message != "stretch" {
		t.Errorf("got %+v", p)
	}
}

func TestMatchRecurring(t *testing.T) {
	it, ok := MatchRecurring("every day at 9:30 open mail")
	if !ok {
		t.Fatal("expected a match")
	}
	p := it.Params.(RecurringParams)
	if p.Frequency != "daily" || p.TimeOfDay != "09:30" {
		t.Errorf("got %+v", p)
	}
	if p.Action != "open_app" || p.Target != "mail" {
		t.Errorf("got action %q target %q", p.Action, p.Target)
	}

	it, ok = MatchRecurring("every hour remind me to drink water")
	if !ok {
		t.Fatal("expected a match")
	}
	p = it.Params.(RecurringParams)
	if p.Frequency != "hourly" || p.Action != "notify" || p.Target != "drink water" {
		t.Errorf("got %+v", p)
	}

	it, ok = MatchRecurring("daily at 18:00 run the end workflow")
	if !ok {
		t.Fatal("expected a match")
	}
	p = it.Params.(RecurringParams)
	if p.Action != "run_workflow" || p.Target != "end" {
		t.Errorf("got %+v", p)
	}
}

func TestMatchTaskCommands(t *testing.T) {
	if _, ok := MatchTaskList("list my tasks"); !ok {
		t.Error("list my tasks should match")
	}
	if _, ok := MatchTaskList("show scheduled tasks"); !ok {
		t.Error("show scheduled tasks should match")
	}
	it, ok := MatchTaskCancel("cancel task reminder_3")
	if !ok {
		t.Fatal("expected a match")
	}
	if got := it.Params.(TaskIDParams).ID; got != "reminder_3" {
		t.Errorf("id = %q", got)
	}
}

func TestMatchFocus(t *testing.T) {
	it, ok := MatchFocus("start focus mode for 45 minutes")
	if !ok {
		t.Fatal("expected a match")
	}
	if got := it.Params.(FocusParams).DurationMinutes; got != 45 {
		t.Errorf("duration = %d, want 45", got)
	}

	it, ok = MatchFocus("start focus")
	if !ok {
		t.Fatal("expected a match")
	}
	if got := it.Params.(FocusParams).DurationMinutes; got != 25 {
		t.Errorf("default duration = %d, want 25", got)
	}

	for text, want := range map[string]Category{
		"end focus":    CategoryFocusEnd,
		"pause focus":  CategoryFocusPause,
		"resume focus": CategoryFocusResume,
		"focus status": CategoryFocusStatus,
	} {
		it, ok := MatchFocus(text)
		if !ok || it.Category != want {
			t.Errorf("MatchFocus(%q) = (%v, %v), want category %v", text, it.Category, ok, want)
		}
	}
}

func TestMatchWorkflowNames(t *testing.T) {
	it, ok := MatchWorkflow("start a coding session")
	if !ok {
		t.Fatal("expected a match")
	}
	if got := it.Params.(WorkflowParams).Name; got != "coding_session" {
		t.Errorf("name = %q, want coding_session", got)
	}

	it, ok = MatchWorkflow("run the morning routine workflow")
	if !ok {
		t.Fatal("expected a match")
	}
	if got := it.Params.(WorkflowParams).Name; got != "morning_routine" {
		t.Errorf("name = %q, want morning_routine", got)
	}
}

func TestMatchAppCommands(t *testing.T) {
	it, ok := MatchAppOpen("open the chrome app")
	if !ok {
		t.Fatal("expected a match")
	}
	if got := it.Params.(AppParams).App; got != "chrome" {
		t.Errorf("app = %q", got)
	}

	it, ok = MatchAppClose("quit spotify")
	if !ok {
		t.Fatal("expected a match")
	}
	if got := it.Params.(AppParams).App; got != "spotify" {
		t.Errorf("app = %q", got)
	}

	if _, ok := MatchAppOpen("open the"); ok {
		t.Error("filler-only phrase should not match")
	}
}

func TestMatchVolumeWithoutLevel(t *testing.T) {
	it, ok := MatchVolume("turn up the volume")
	if !ok {
		t.Fatal("volume keyword should match")
	}
	if p := it.Params.(LevelParams); p.Valid {
		t.Errorf("no number present, Valid should be false, got %+v", p)
	}

	it, _ = MatchVolume("set volume to 30")
	if p := it.Params.(LevelParams); !p.Valid || p.Level != 30 {
		t.Errorf("got %+v, want level 30", p)
	}
}

func TestMatchMode(t *testing.T) {
	it, ok := MatchMode("switch to research mode")
	if !ok || it.Category != CategoryModeSwitch {
		t.Fatalf("got (%v, %v)", it.Category, ok)
	}
	if got := it.Params.(ModeParams).Mode; got != "research" {
		t.Errorf("mode = %q", got)
	}

	it, ok = MatchMode("what mode are you in")
	if !ok || it.Category != CategoryModeQuery {
		t.Errorf("got (%v, %v)", it.Category, ok)
	}
}

func TestMatchSetName(t *testing.T) {
	it, ok := MatchSetName("my name is tony")
	if !ok {
		t.Fatal("expected a match")
	}
	if got := it.Params.(NameParams).Name; got != "Tony" {
		t.Errorf("name = %q, want Tony", got)
	}
}

func TestMatchMemory(t *testing.T) {
	it, ok := MatchMemory("remember that i prefer tea")
	if !ok || it.Category != CategoryRemember {
		t.Fatalf("got (%v, %v)", it.Category, ok)
	}
	if got := it.Params.(FactParams).Fact; got != "i prefer tea" {
		t.Errorf("fact = %q", got)
	}

	it, ok = MatchMemory("clear history")
	if !ok || it.Category != CategoryClearHistory {
		t.Errorf("got (%v, %v)", it.Category, ok)
	}

	it, ok = MatchMemory("forget that")
	if !ok || it.Category != CategoryForget {
		t.Errorf("got (%v, %v)", it.Category, ok)
	}
}
