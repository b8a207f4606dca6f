package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/prose/v3"
)

// The rule layer: deterministic, priority-ordered matchers. Matching is
// case-insensitive; each matcher is a predicate plus extractor returning a
// fully typed Intent with confidence 1.0. The dispatcher owns the order in
// which these run.

var (
	reReminderInTo = regexp.MustCompile(`(?i)\bremind me in (\d+) minutes? to (.+)$`)
	reReminderToIn = regexp.MustCompile(`(?i)\bremind me to (.+?) in (\d+) minutes?$`)

	reRecurringDaily  = regexp.MustCompile(`(?i)^(?:every day|daily) at (\d{1,2}:\d{2})[,]? (.+)$`)
	reRecurringHourly = regexp.MustCompile(`(?i)^(?:every hour|hourly)[,]? (.+)$`)
	reRecurringOpen   = regexp.MustCompile(`(?i)^open (.+)$`)
	reRecurringWF     = regexp.MustCompile(`(?i)^run (?:the )?([\w ]+?)(?: workflow)?$`)

	reTaskList   = regexp.MustCompile(`(?i)\b(?:list|show)(?: my)? (?:tasks|reminders|scheduled tasks)\b`)
	reTaskCancel = regexp.MustCompile(`(?i)\bcancel (?:task|reminder) (\S+)`)

	reFocusStart = regexp.MustCompile(`(?i)^(?:start|begin|enter) focus(?: mode)?(?: for (\d+) minutes?)?$`)
	reFocusFor   = regexp.MustCompile(`(?i)^focus(?: mode)? for (\d+) minutes?$`)

	reRepoList   = regexp.MustCompile(`(?i)\b(?:list|show)(?: my)? repo(?:s|sitories)\b`)
	reRepoCreate = regexp.MustCompile(`(?i)\bcreate (?:a )?(?:new )?repo(?:sitory)?(?: (?:called|named))? (\S+)`)

	reWorkflow = regexp.MustCompile(`(?i)^(?:start|run) (?:a |the |my )?([\w ]+?) (session|workflow)$`)

	reAppOpen  = regexp.MustCompile(`(?i)^(?:open|launch|start) (.+)$`)
	reAppClose = regexp.MustCompile(`(?i)^(?:close|quit|kill) (.+)$`)

	reModeSwitch = regexp.MustCompile(`(?i)\b(?:switch to (coding|research|general)(?: mode)?|(coding|research|general) mode)\b`)

	reSetName = regexp.MustCompile(`(?i)\bmy name is (\w+)`)

	reRemember = regexp.MustCompile(`(?i)^remember (?:that )?(.+)$`)
)

// politeness prefixes stripped before matching.
var politePrefixes = []string{
	"please ", "could you ", "can you ", "would you ", "would you mind ", "kindly ",
}

// filler tokens stripped from extracted phrases.
var fillerTokens = map[string]bool{
	"the": true, "app": true, "please": true, "a": true, "an": true,
}

// Normalize lowercases, trims, and strips politeness prefixes so matchers
// see the imperative clause itself.
func Normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	changed := true
	for changed {
		changed = false
		for _, prefix := range politePrefixes {
			if strings.HasPrefix(t, prefix) {
				t = strings.TrimSpace(strings.TrimPrefix(t, prefix))
				changed = true
			}
		}
	}
	return t
}

// StripFillers removes filler tokens ("the", "app", "please", "for me")
// from an extracted phrase and returns what remains.
func StripFillers(phrase string) string {
	phrase = strings.TrimSpace(phrase)
	lower := strings.ToLower(phrase)
	lower = strings.ReplaceAll(lower, " for me", "")
	var kept []string
	for _, tok := range strings.Fields(lower) {
		if fillerTokens[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// tokenize splits text into tokens. Uses the prose tokenizer so attached
// punctuation ("50%," etc.) separates cleanly; falls back to whitespace
// splitting if the document can't be built.
func tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return strings.Fields(text)
	}
	toks := doc.Tokens()
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Text)
	}
	return out
}

// FirstLevel scans tokens for the first integer in [0,100]. Returns false
// when no usable number is present.
func FirstLevel(text string) (int, bool) {
	for _, tok := range tokenize(text) {
		tok = strings.TrimSuffix(tok, "%")
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if n >= 0 && n <= 100 {
			return n, true
		}
	}
	return 0, false
}

// SplitChain splits a multi-command input on the conjunction token.
func SplitChain(text string) []string {
	parts := strings.Split(text, " and ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// --- Scheduling ---

// MatchReminder recognizes "remind me in N minutes to X" and
// "remind me to X in N minutes".
func MatchReminder(text string) (Intent, bool) {
	if m := reReminderInTo.FindStringSubmatch(text); m != nil {
		delay, _ := strconv.Atoi(m[1])
		return ruleIntent(CategoryReminder, ReminderParams{Message: strings.TrimSpace(m[2]), DelayMinutes: delay}), true
	}
	if m := reReminderToIn.FindStringSubmatch(text); m != nil {
		delay, _ := strconv.Atoi(m[2])
		return ruleIntent(CategoryReminder, ReminderParams{Message: strings.TrimSpace(m[1]), DelayMinutes: delay}), true
	}
	return Intent{}, false
}

// MatchRecurring recognizes "every day at HH:MM <do something>" and
// "every hour <do something>". The trailing clause resolves to an open_app,
// run_workflow, or notify action.
func MatchRecurring(text string) (Intent, bool) {
	if m := reRecurringDaily.FindStringSubmatch(text); m != nil {
		action, target := recurringAction(m[2])
		return ruleIntent(CategoryRecurring, RecurringParams{
			Description: strings.TrimSpace(m[2]),
			Action:      action,
			Target:      target,
			TimeOfDay:   normalizeClock(m[1]),
			Frequency:   "daily",
		}), true
	}
	if m := reRecurringHourly.FindStringSubmatch(text); m != nil {
		action, target := recurringAction(m[1])
		return ruleIntent(CategoryRecurring, RecurringParams{
			Description: strings.TrimSpace(m[1]),
			Action:      action,
			Target:      target,
			Frequency:   "hourly",
		}), true
	}
	return Intent{}, false
}

func recurringAction(clause string) (action, target string) {
	clause = strings.TrimSpace(clause)
	if m := reRecurringOpen.FindStringSubmatch(clause); m != nil {
		return "open_app", StripFillers(m[1])
	}
	if m := reRecurringWF.FindStringSubmatch(clause); m != nil {
		return "run_workflow", workflowName(m[1], "workflow")
	}
	clause = strings.TrimPrefix(clause, "remind me to ")
	return "notify", clause
}

func normalizeClock(v string) string {
	if len(v) == 4 { // H:MM
		return "0" + v
	}
	return v
}

// MatchTaskList recognizes task listing requests.
func MatchTaskList(text string) (Intent, bool) {
	if reTaskList.MatchString(text) || strings.Contains(text, "what's scheduled") {
		return ruleIntent(CategoryTaskList, NoParams{}), true
	}
	return Intent{}, false
}

// MatchTaskCancel recognizes "cancel task <id>".
func MatchTaskCancel(text string) (Intent, bool) {
	if m := reTaskCancel.FindStringSubmatch(text); m != nil {
		return ruleIntent(CategoryTaskCancel, TaskIDParams{ID: m[1]}), true
	}
	return Intent{}, false
}

// --- Focus ---

// MatchFocus recognizes the focus session commands.
func MatchFocus(text string) (Intent, bool) {
	if m := reFocusStart.FindStringSubmatch(text); m != nil {
		duration := 25
		if m[1] != "" {
			duration, _ = strconv.Atoi(m[1])
		}
		return ruleIntent(CategoryFocusStart, FocusParams{DurationMinutes: duration}), true
	}
	if m := reFocusFor.FindStringSubmatch(text); m != nil {
		duration, _ := strconv.Atoi(m[1])
		return ruleIntent(CategoryFocusStart, FocusParams{DurationMinutes: duration}), true
	}
	switch {
	case strings.Contains(text, "end focus"), strings.Contains(text, "cancel focus"), strings.Contains(text, "stop focus"):
		return ruleIntent(CategoryFocusEnd, NoParams{}), true
	case strings.Contains(text, "pause focus"):
		return ruleIntent(CategoryFocusPause, NoParams{}), true
	case strings.Contains(text, "resume focus"):
		return ruleIntent(CategoryFocusResume, NoParams{}), true
	case strings.Contains(text, "focus status"), strings.Contains(text, "time left in focus"):
		return ruleIntent(CategoryFocusStatus, NoParams{}), true
	}
	return Intent{}, false
}

// --- Integrations ---

// MatchRepo recognizes the repository commands.
func MatchRepo(text string) (Intent, bool) {
	if reRepoList.MatchString(text) {
		return ruleIntent(CategoryRepoList, NoParams{}), true
	}
	if m := reRepoCreate.FindStringSubmatch(text); m != nil {
		return ruleIntent(CategoryRepoCreate, RepoParams{Name: m[1]}), true
	}
	return Intent{}, false
}

// MatchWorkflow recognizes "start a coding session" / "run the X workflow".
func MatchWorkflow(text string) (Intent, bool) {
	if m := reWorkflow.FindStringSubmatch(text); m != nil {
		return ruleIntent(CategoryWorkflow, WorkflowParams{Name: workflowName(m[1], m[2])}), true
	}
	return Intent{}, false
}

// workflowName maps a spoken phrase to a registered workflow name:
// "coding session" -> coding_session, "run the study workflow" -> study.
func workflowName(phrase, kind string) string {
	name := strings.Join(strings.Fields(strings.ToLower(phrase)), "_")
	if kind == "session" && !strings.HasSuffix(name, "_session") {
		name += "_session"
	}
	return name
}

// MatchSystemStatus recognizes system vitals requests.
func MatchSystemStatus(text string) (Intent, bool) {
	if strings.Contains(text, "system status") || strings.Contains(text, "system report") ||
		strings.Contains(text, "how's the system") || strings.Contains(text, "how is the system") {
		return ruleIntent(CategorySystemStatus, NoParams{}), true
	}
	return Intent{}, false
}

// --- App and device control ---

// MatchAppOpen recognizes "open/launch/start <app>".
func MatchAppOpen(text string) (Intent, bool) {
	if m := reAppOpen.FindStringSubmatch(text); m != nil {
		if app := StripFillers(m[1]); app != "" {
			return ruleIntent(CategoryAppOpen, AppParams{App: app}), true
		}
	}
	return Intent{}, false
}

// MatchAppClose recognizes "close/quit/kill <app>".
func MatchAppClose(text string) (Intent, bool) {
	if m := reAppClose.FindStringSubmatch(text); m != nil {
		if app := StripFillers(m[1]); app != "" {
			return ruleIntent(CategoryAppClose, AppParams{App: app}), true
		}
	}
	return Intent{}, false
}

// MatchVolume recognizes volume commands. An absent or out-of-range level
// yields LevelParams{Valid: false}; the dispatcher asks for clarification
// instead of guessing.
func MatchVolume(text string) (Intent, bool) {
	if !strings.Contains(text, "volume") {
		return Intent{}, false
	}
	level, ok := FirstLevel(text)
	return ruleIntent(CategoryVolume, LevelParams{Level: level, Valid: ok}), true
}

// MatchBrightness recognizes brightness commands, same contract as volume.
func MatchBrightness(text string) (Intent, bool) {
	if !strings.Contains(text, "brightness") {
		return Intent{}, false
	}
	level, ok := FirstLevel(text)
	return ruleIntent(CategoryBrightness, LevelParams{Level: level, Valid: ok}), true
}

// --- Profiles and persistence ---

// MatchMode recognizes profile switching and the mode query.
func MatchMode(text string) (Intent, bool) {
	if strings.Contains(text, "what mode") || strings.Contains(text, "current mode") {
		return ruleIntent(CategoryModeQuery, NoParams{}), true
	}
	if m := reModeSwitch.FindStringSubmatch(text); m != nil {
		mode := m[1]
		if mode == "" {
			mode = m[2]
		}
		return ruleIntent(CategoryModeSwitch, ModeParams{Mode: mode}), true
	}
	return Intent{}, false
}

// MatchSetName recognizes "my name is X".
func MatchSetName(text string) (Intent, bool) {
	if m := reSetName.FindStringSubmatch(text); m != nil {
		name := m[1]
		name = strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
		return ruleIntent(CategorySetName, NameParams{Name: name}), true
	}
	return Intent{}, false
}

// MatchMemory recognizes remember/forget/clear-history commands.
func MatchMemory(text string) (Intent, bool) {
	if strings.Contains(text, "clear history") || strings.Contains(text, "forget everything") {
		return ruleIntent(CategoryClearHistory, NoParams{}), true
	}
	if strings.Contains(text, "forget that") || strings.Contains(text, "forget what i told you") {
		return ruleIntent(CategoryForget, NoParams{}), true
	}
	if m := reRemember.FindStringSubmatch(text); m != nil {
		return ruleIntent(CategoryRemember, FactParams{Fact: strings.TrimSpace(m[1])}), true
	}
	return Intent{}, false
}
