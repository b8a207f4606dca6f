package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"valet/internal/focus"
	"valet/internal/intent"
	"valet/internal/logging"
	"valet/internal/memory"
	"valet/internal/sched"
)

// SystemControl is the slice of machine control the dispatcher needs.
type SystemControl interface {
	OpenApp(name string) (bool, string)
	CloseApp(name string) (bool, string)
	SetVolume(level int) (bool, string)
	SetBrightness(level int) (bool, string)
	Status() (bool, string)
	Navigate(it intent.Intent) (bool, string)
}

// Profiles switches and reports the reasoning-model profile.
type Profiles interface {
	SwitchProfile(name string) bool
	Profile() string
	Model() string
	ProfileNames() []string
}

// Repos is the repository-hosting integration surface.
type Repos interface {
	Authenticated() bool
	ListRepos(ctx context.Context, limit int) (string, error)
	CreateRepo(ctx context.Context, name string) (string, error)
}

// Workflows runs named multi-step chains.
type Workflows interface {
	Execute(name string) (bool, string)
	Names() []string
}

// Classifier is the probabilistic resolution layer.
type Classifier interface {
	Detect(ctx context.Context, text string) intent.Intent
	Actionable(it intent.Intent) bool
}

// defaultAllowed is the focus-session allow list when none is configured.
var defaultAllowed = []string{"VS Code", "Visual Studio Code", "Terminal", "iTerm", "Notes"}

// Options wires a Dispatcher.
type Options struct {
	Detector    Classifier
	System      SystemControl
	Scheduler   *sched.Scheduler
	Workflows   Workflows
	Repos       Repos
	Profiles    Profiles
	Memory      *memory.Store
	AllowedApps []string
}

// entry is one bucket in the dispatch table. Buckets run in table order and
// the first one to claim the input wins.
type entry struct {
	name   string
	handle func(ctx context.Context, text string) (string, bool)
}

// Dispatcher routes each input through a fixed-priority table of command
// buckets, falling back to the probabilistic classifier, and finally to
// conversation. It owns the single focus session and never panics the
// control loop.
type Dispatcher struct {
	detector  Classifier
	sys       SystemControl
	scheduler *sched.Scheduler
	wf        Workflows
	repos     Repos
	profiles  Profiles
	mem       *memory.Store

	session     *focus.Session
	allowedApps []string
	newSession  func(d time.Duration, allowed []string, mode string) *focus.Session

	table []entry
}

// New creates a Dispatcher. All option fields except AllowedApps are required.
func New(opts Options) *Dispatcher {
	allowed := opts.AllowedApps
	if len(allowed) == 0 {
		allowed = defaultAllowed
	}
	d := &Dispatcher{
		detector:    opts.Detector,
		sys:         opts.System,
		scheduler:   opts.Scheduler,
		wf:          opts.Workflows,
		repos:       opts.Repos,
		profiles:    opts.Profiles,
		mem:         opts.Memory,
		allowedApps: allowed,
		newSession:  focus.NewSession,
	}
	d.table = []entry{
		{"focus", d.focusCommands},
		{"scheduling", d.scheduling},
		{"repos", d.repoCommands},
		{"workflows", d.workflowCommands},
		{"system", d.systemStatus},
		{"apps", d.appCommands},
		{"levels", d.levelCommands},
		{"mode", d.modeCommands},
		{"preferences", d.preferenceCommands},
		{"memory", d.memoryCommands},
		{"classifier", d.classify},
	}
	return d
}

// Handle routes one input. It returns (true, response) when a command bucket
// claimed the input, and (false, notice) when the input should route to
// conversation; notice is usually empty but carries the end-of-session
// summary when a focus session expired since the last call.
func (d *Dispatcher) Handle(ctx context.Context, raw string) (handled bool, response string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Info("dispatch", "recovered from panic: %v", r)
			handled = true
			response = "I'm sorry, sir. Something went wrong handling that."
		}
	}()

	text := intent.Normalize(raw)
	if text == "" {
		return false, ""
	}

	// Lazy expiry: the session ends the first time anything runs after End.
	var notice string
	if d.session != nil && !d.session.Paused() && !d.session.Active() {
		notice = d.session.EndSummary()
		d.session = nil
	}

	for _, e := range d.table {
		resp, ok := e.handle(ctx, text)
		if !ok {
			continue
		}
		logging.Debug("dispatch", "bucket %s handled: %s", e.name, logging.Truncate(text, 60))
		d.mem.RecordCommand(raw, resp)
		if notice != "" {
			resp = notice + "\n\n" + resp
		}
		return true, resp
	}
	return false, notice
}

// --- Focus ---

func (d *Dispatcher) focusCommands(_ context.Context, text string) (string, bool) {
	it, ok := intent.MatchFocus(text)
	if !ok {
		return "", false
	}

	switch it.Category {
	case intent.CategoryFocusStart:
		if d.session != nil && (d.session.Active() || d.session.Paused()) {
			return fmt.Sprintf("A focus session is already running, sir. %d minutes remaining.", d.session.Remaining()), true
		}
		p := it.Params.(intent.FocusParams)
		d.session = d.newSession(time.Duration(p.DurationMinutes)*time.Minute, d.allowedApps, d.profiles.Profile())
		return fmt.Sprintf("Focus mode engaged for %d minutes, sir. Distractions will be held at bay.", p.DurationMinutes), true

	case intent.CategoryFocusEnd:
		if d.session == nil {
			return "No focus session is running, sir.", true
		}
		summary := d.session.EndSummary()
		d.session = nil
		return summary, true

	case intent.CategoryFocusPause:
		if d.session == nil {
			return "No focus session is running, sir.", true
		}
		d.session.Pause()
		return "Focus paused, sir. Say resume when you're ready.", true

	case intent.CategoryFocusResume:
		if d.session == nil {
			return "No focus session is running, sir.", true
		}
		d.session.Resume()
		return fmt.Sprintf("Focus resumed, sir. %d minutes remaining.", d.session.Remaining()), true

	case intent.CategoryFocusStatus:
		switch {
		case d.session == nil:
			return "You're not in focus mode, sir.", true
		case d.session.Paused():
			return "Focus is paused, sir.", true
		default:
			return fmt.Sprintf("%d minutes remaining in focus, sir.", d.session.Remaining()), true
		}
	}
	return "", false
}

// --- Scheduling ---

func (d *Dispatcher) scheduling(_ context.Context, text string) (string, bool) {
	if it, ok := intent.MatchReminder(text); ok {
		p := it.Params.(intent.ReminderParams)
		d.scheduler.AddReminder(p.Message, p.DelayMinutes)
		return fmt.Sprintf("Very good, sir. I'll remind you to %s in %d minutes.", p.Message, p.DelayMinutes), true
	}

	if it, ok := intent.MatchRecurring(text); ok {
		p := it.Params.(intent.RecurringParams)
		params := map[string]string{}
		switch p.Action {
		case "open_app":
			params["app"] = p.Target
		case "run_workflow":
			params["workflow"] = p.Target
		default:
			params["message"] = p.Target
		}
		_, err := d.scheduler.AddRecurring(p.Description, sched.Action(p.Action), params, p.TimeOfDay, p.Frequency)
		if err != nil {
			return fmt.Sprintf("I'm sorry, sir. I couldn't schedule that: %v.", err), true
		}
		if p.Frequency == sched.FreqDaily {
			return fmt.Sprintf("Scheduled, sir. Every day at %s I'll %s.", p.TimeOfDay, p.Description), true
		}
		return fmt.Sprintf("Scheduled, sir. Every hour I'll %s.", p.Description), true
	}

	if _, ok := intent.MatchTaskList(text); ok {
		return d.formatTaskList(), true
	}

	if it, ok := intent.MatchTaskCancel(text); ok {
		p := it.Params.(intent.TaskIDParams)
		if d.scheduler.Cancel(p.ID) {
			return fmt.Sprintf("Task %s cancelled, sir.", p.ID), true
		}
		return fmt.Sprintf("I couldn't find a task named %s, sir.", p.ID), true
	}

	return "", false
}

func (d *Dispatcher) formatTaskList() string {
	tasks := d.scheduler.List()
	if len(tasks) == 0 {
		return "Nothing on the schedule, sir."
	}

	var sb strings.Builder
	sb.WriteString("Scheduled tasks, sir:\n")
	for _, t := range tasks {
		sb.WriteString("- [" + t.ID + "] " + t.Description)
		switch {
		case t.Kind == sched.KindOneShot:
			fmt.Fprintf(&sb, " (in %d minutes)", t.Trigger.DelayMinutes)
		case t.Trigger.Frequency == sched.FreqDaily:
			fmt.Fprintf(&sb, " (daily at %s)", t.Trigger.TimeOfDay)
		default:
			sb.WriteString(" (hourly)")
		}
		if t.ExecutionCount > 0 {
			fmt.Fprintf(&sb, ", ran %d times", t.ExecutionCount)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// --- Integrations ---

func (d *Dispatcher) repoCommands(ctx context.Context, text string) (string, bool) {
	it, ok := intent.MatchRepo(text)
	if !ok {
		return "", false
	}
	if !d.repos.Authenticated() {
		return "GitHub isn't configured, sir. Set GITHUB_TOKEN and I'll take care of it.", true
	}

	switch it.Category {
	case intent.CategoryRepoList:
		out, err := d.repos.ListRepos(ctx, 10)
		if err != nil {
			logging.Info("dispatch", "repo list failed: %v", err)
			return "I'm sorry, sir. GitHub isn't responding.", true
		}
		return out, true
	case intent.CategoryRepoCreate:
		p := it.Params.(intent.RepoParams)
		out, err := d.repos.CreateRepo(ctx, p.Name)
		if err != nil {
			logging.Info("dispatch", "repo create failed: %v", err)
			return "I'm sorry, sir. I couldn't create that repository.", true
		}
		return out, true
	}
	return "", false
}

func (d *Dispatcher) workflowCommands(_ context.Context, text string) (string, bool) {
	it, ok := intent.MatchWorkflow(text)
	if !ok {
		return "", false
	}
	p := it.Params.(intent.WorkflowParams)
	_, msg := d.wf.Execute(p.Name)
	return msg, true
}

func (d *Dispatcher) systemStatus(_ context.Context, text string) (string, bool) {
	if _, ok := intent.MatchSystemStatus(text); !ok {
		return "", false
	}
	_, msg := d.sys.Status()
	return msg, true
}

// --- App control ---

func (d *Dispatcher) appCommands(_ context.Context, text string) (string, bool) {
	segments := intent.SplitChain(text)
	if len(segments) > 1 {
		// Clauses that aren't app commands are dropped from the chain, not
		// reported; the acknowledgment covers only what ran.
		var msgs []string
		for _, seg := range segments {
			it, ok := matchApp(seg)
			if !ok {
				continue
			}
			msgs = append(msgs, d.runApp(it))
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, " "), true
		}
		// No clause matched; never re-match the joined text, or the open
		// rule would swallow the whole chain as one app name.
		return "", false
	}

	it, ok := matchApp(text)
	if !ok {
		return "", false
	}
	return d.runApp(it), true
}

func matchApp(text string) (intent.Intent, bool) {
	if it, ok := intent.MatchAppOpen(text); ok {
		return it, true
	}
	return intent.MatchAppClose(text)
}

// runApp executes one open/close, vetoed by an active focus session.
func (d *Dispatcher) runApp(it intent.Intent) string {
	p := it.Params.(intent.AppParams)
	if it.Category == intent.CategoryAppOpen {
		if d.session != nil && d.session.Active() && !d.session.AppAllowed(p.App) {
			return d.session.HandleBlocked(p.App)
		}
		_, msg := d.sys.OpenApp(p.App)
		return msg
	}
	_, msg := d.sys.CloseApp(p.App)
	return msg
}

// --- Volume and brightness ---

func (d *Dispatcher) levelCommands(_ context.Context, text string) (string, bool) {
	if it, ok := intent.MatchVolume(text); ok {
		p := it.Params.(intent.LevelParams)
		if !p.Valid {
			return "To what level, sir? Zero to one hundred.", true
		}
		_, msg := d.sys.SetVolume(p.Level)
		return msg, true
	}
	if it, ok := intent.MatchBrightness(text); ok {
		p := it.Params.(intent.LevelParams)
		if !p.Valid {
			return "To what level, sir? Zero to one hundred.", true
		}
		_, msg := d.sys.SetBrightness(p.Level)
		return msg, true
	}
	return "", false
}

// --- Profiles ---

func (d *Dispatcher) modeCommands(_ context.Context, text string) (string, bool) {
	it, ok := intent.MatchMode(text)
	if !ok {
		return "", false
	}
	switch it.Category {
	case intent.CategoryModeQuery:
		return fmt.Sprintf("We're in %s mode, sir, running %s. Available modes: %s.",
			d.profiles.Profile(), d.profiles.Model(), strings.Join(d.profiles.ProfileNames(), ", ")), true
	case intent.CategoryModeSwitch:
		p := it.Params.(intent.ModeParams)
		if d.profiles.SwitchProfile(p.Mode) {
			return fmt.Sprintf("Switched to %s mode, sir.", p.Mode), true
		}
		return fmt.Sprintf("I don't know a %s mode, sir. Available modes: %s.",
			p.Mode, strings.Join(d.profiles.ProfileNames(), ", ")), true
	}
	return "", false
}

// --- Preferences ---

func (d *Dispatcher) preferenceCommands(_ context.Context, text string) (string, bool) {
	it, ok := intent.MatchSetName(text)
	if !ok {
		return "", false
	}
	p := it.Params.(intent.NameParams)
	if err := d.mem.SetPreference("user_name", p.Name); err != nil {
		logging.Info("dispatch", "could not save name: %v", err)
		return "I'm sorry, sir. I couldn't save that.", true
	}
	return fmt.Sprintf("A pleasure, %s. I'll remember that.", p.Name), true
}

// --- Memory ---

func (d *Dispatcher) memoryCommands(_ context.Context, text string) (string, bool) {
	it, ok := intent.MatchMemory(text)
	if !ok {
		return "", false
	}
	switch it.Category {
	case intent.CategoryClearHistory:
		if err := d.mem.ClearHistory(); err != nil {
			logging.Info("dispatch", "could not clear history: %v", err)
			return "I'm sorry, sir. I couldn't clear the history.", true
		}
		return "Conversation history cleared, sir. A fresh start.", true
	case intent.CategoryForget:
		if err := d.mem.ClearCustomMemories(); err != nil {
			logging.Info("dispatch", "could not clear memories: %v", err)
			return "I'm sorry, sir. I couldn't forget that.", true
		}
		return "Forgotten, sir.", true
	case intent.CategoryRemember:
		p := it.Params.(intent.FactParams)
		if err := d.mem.AddCustomMemory(p.Fact); err != nil {
			logging.Info("dispatch", "could not save memory: %v", err)
			return "I'm sorry, sir. I couldn't save that.", true
		}
		return "Noted, sir. I'll remember that.", true
	}
	return "", false
}

// --- Probabilistic fallback ---

func (d *Dispatcher) classify(ctx context.Context, text string) (string, bool) {
	it := d.detector.Detect(ctx, text)
	if !d.detector.Actionable(it) {
		return "", false
	}

	// The gate applies to classified app opens just as to rule-matched ones.
	if it.Category == intent.CategoryAppOpen && d.session != nil && d.session.Active() {
		if p, ok := it.Params.(intent.AppParams); ok && !d.session.AppAllowed(p.App) {
			return d.session.HandleBlocked(p.App), true
		}
	}

	ok, msg := d.sys.Navigate(it)
	return msg, ok
}
