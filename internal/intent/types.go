package intent

// Category is the closed set of command interpretations. Rule matching and
// the model classifier both resolve into this set; anything else is
// conversation.
type Category string

const (
	// Scheduling
	CategoryReminder   Category = "REMINDER"
	CategoryRecurring  Category = "RECURRING_TASK"
	CategoryTaskList   Category = "TASK_LIST"
	CategoryTaskCancel Category = "TASK_CANCEL"

	// Focus gate
	CategoryFocusStart  Category = "FOCUS_START"
	CategoryFocusEnd    Category = "FOCUS_END"
	CategoryFocusPause  Category = "FOCUS_PAUSE"
	CategoryFocusResume Category = "FOCUS_RESUME"
	CategoryFocusStatus Category = "FOCUS_STATUS"

	// Integrations
	CategoryRepoList     Category = "REPO_LIST"
	CategoryRepoCreate   Category = "REPO_CREATE"
	CategoryWorkflow     Category = "WORKFLOW"
	CategorySystemStatus Category = "SYSTEM_STATUS"

	// App and device control
	CategoryAppOpen    Category = "APP_OPEN"
	CategoryAppClose   Category = "APP_CLOSE"
	CategoryVolume     Category = "VOLUME"
	CategoryBrightness Category = "BRIGHTNESS"

	// Profiles and persistence
	CategoryModeSwitch   Category = "MODE_SWITCH"
	CategoryModeQuery    Category = "MODE_QUERY"
	CategorySetName      Category = "SET_NAME"
	CategoryRemember     Category = "REMEMBER"
	CategoryForget       Category = "FORGET"
	CategoryClearHistory Category = "CLEAR_HISTORY"

	// App navigation (the model classifier's output set)
	CategorySpotifyPlay     Category = "SPOTIFY_PLAY"
	CategorySpotifyControl  Category = "SPOTIFY_CONTROL"
	CategoryYouTubeSearch   Category = "YOUTUBE_SEARCH"
	CategoryGoogleSearch    Category = "GOOGLE_SEARCH"
	CategoryWhatsAppMessage Category = "WHATSAPP_MESSAGE"
	CategoryEmailSearch     Category = "EMAIL_SEARCH"
	CategoryWebsiteVisit    Category = "WEBSITE_VISIT"

	CategoryGeneralChat Category = "GENERAL_CHAT"
	CategoryUnknown     Category = "UNKNOWN"
)

// Source records which resolution strategy produced an intent.
type Source string

const (
	SourceRule  Source = "rule"
	SourceModel Source = "model"
)

// Intent is the resolved, typed interpretation of one input. Rule-matched
// intents always carry confidence 1.0.
type Intent struct {
	Category   Category
	Params     Params
	Confidence float64
	Source     Source
}

// Params is the tagged variant of per-category parameters. Each category
// group has its own concrete type so missing parameters show up at compile
// time, not at dispatch time.
type Params interface{ isParams() }

// NoParams is used by categories without extraction.
type NoParams struct{}

// AppParams names an application to open or close.
type AppParams struct{ App string }

// QueryParams carries a search or play query.
type QueryParams struct{ Query string }

// ControlParams carries a playback control action (pause, resume, ...).
type ControlParams struct{ Action string }

// MessageParams carries a contact and a message body.
type MessageParams struct {
	Contact string
	Message string
}

// SiteParams names a website to visit.
type SiteParams struct{ URL string }

// LevelParams carries a 0-100 level. Valid is false when no usable number
// was present; the dispatcher then asks for clarification.
type LevelParams struct {
	Level int
	Valid bool
}

// ReminderParams describes a one-shot reminder.
type ReminderParams struct {
	Message      string
	DelayMinutes int
}

// RecurringParams describes a recurring task registration.
type RecurringParams struct {
	Description string
	Action      string // notify, open_app, run_workflow
	Target      string // app or workflow name, or the notify message
	TimeOfDay   string // HH:MM, empty for hourly-from-now
	Frequency   string // daily or hourly
}

// TaskIDParams identifies a scheduled task.
type TaskIDParams struct{ ID string }

// FocusParams configures a focus session.
type FocusParams struct{ DurationMinutes int }

// ModeParams names a model profile.
type ModeParams struct{ Mode string }

// NameParams carries the user's name.
type NameParams struct{ Name string }

// FactParams carries a fact to remember.
type FactParams struct{ Fact string }

// WorkflowParams names a workflow.
type WorkflowParams struct{ Name string }

// RepoParams names a repository.
type RepoParams struct{ Name string }

func (NoParams) isParams()        {}
func (AppParams) isParams()       {}
func (QueryParams) isParams()     {}
func (ControlParams) isParams()   {}
func (MessageParams) isParams()   {}
func (SiteParams) isParams()      {}
func (LevelParams) isParams()     {}
func (ReminderParams) isParams()  {}
func (RecurringParams) isParams() {}
func (TaskIDParams) isParams()    {}
func (FocusParams) isParams()     {}
func (ModeParams) isParams()      {}
func (NameParams) isParams()      {}
func (FactParams) isParams()      {}
func (WorkflowParams) isParams()  {}
func (RepoParams) isParams()      {}

// actionable is the subset of categories the model classifier may act on.
// Everything else from the model routes to conversation.
var actionable = map[Category]bool{
	CategoryAppOpen:         true,
	CategorySpotifyPlay:     true,
	CategorySpotifyControl:  true,
	CategoryYouTubeSearch:   true,
	CategoryGoogleSearch:    true,
	CategoryWhatsAppMessage: true,
	CategoryEmailSearch:     true,
	CategoryWebsiteVisit:    true,
}

// ActionableCategory reports whether a model-classified category may be
// executed (confidence gating is separate, see Detector.Actionable).
func ActionableCategory(c Category) bool { return actionable[c] }

func ruleIntent(c Category, p Params) Intent {
	return Intent{Category: c, Params: p, Confidence: 1.0, Source: SourceRule}
}
