package workflow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"valet/internal/logging"
)

// Step is one action in a workflow chain.
type Step struct {
	Action string `yaml:"action"` // open_app, close_app, switch_mode, set_volume
	App    string `yaml:"app,omitempty"`
	Mode   string `yaml:"mode,omitempty"`
	Level  int    `yaml:"level,omitempty"`
}

// Workflow is a named multi-step chain.
type Workflow struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// AppControl is the slice of system control the executor needs.
type AppControl interface {
	OpenApp(name string) (bool, string)
	CloseApp(name string) (bool, string)
	SetVolume(level int) (bool, string)
}

// ModeSwitcher switches the reasoning-model profile.
type ModeSwitcher interface {
	SwitchProfile(name string) bool
}

// Executor runs workflow chains. Built-in workflows can be overridden by
// YAML files in the workflow directory.
type Executor struct {
	apps      AppControl
	modes     ModeSwitcher
	workflows map[string]Workflow
}

// NewExecutor creates an Executor with the built-in workflows registered.
func NewExecutor(apps AppControl, modes ModeSwitcher) *Executor {
	e := &Executor{
		apps:      apps,
		modes:     modes,
		workflows: make(map[string]Workflow),
	}
	for _, wf := range builtins() {
		e.workflows[wf.Name] = wf
	}
	return e
}

func builtins() []Workflow {
	return []Workflow{
		{
			Name:        "coding_session",
			Description: "Prepare for coding",
			Steps: []Step{
				{Action: "open_app", App: "VS Code"},
				{Action: "open_app", App: "Terminal"},
				{Action: "open_app", App: "Chrome"},
				{Action: "switch_mode", Mode: "coding"},
				{Action: "set_volume", Level: 40},
			},
		},
		{
			Name:        "research_session",
			Description: "Prepare for research",
			Steps: []Step{
				{Action: "open_app", App: "Chrome"},
				{Action: "open_app", App: "Notes"},
				{Action: "switch_mode", Mode: "research"},
				{Action: "set_volume", Level: 60},
			},
		},
		{
			Name:        "study_session",
			Description: "Prepare for studying",
			Steps: []Step{
				{Action: "open_app", App: "Notes"},
				{Action: "open_app", App: "Chrome"},
				{Action: "set_volume", Level: 50},
				{Action: "switch_mode", Mode: "research"},
			},
		},
		{
			Name:        "end_session",
			Description: "End work session",
			Steps: []Step{
				{Action: "close_app", App: "VS Code"},
				{Action: "close_app", App: "Terminal"},
				{Action: "open_app", App: "Mail"},
				{Action: "switch_mode", Mode: "general"},
				{Action: "set_volume", Level: 70},
			},
		},
	}
}

// LoadDir reads *.yaml workflow files, overriding built-ins of the same name.
// A malformed file is skipped with a log line.
func (e *Executor) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("glob workflows: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return fmt.Errorf("glob workflows: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logging.Info("workflow", "could not read %s: %v", file, err)
			continue
		}
		var wf Workflow
		if err := yaml.Unmarshal(data, &wf); err != nil {
			logging.Info("workflow", "could not parse %s: %v", file, err)
			continue
		}
		if wf.Name == "" {
			wf.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		e.workflows[wf.Name] = wf
		logging.Debug("workflow", "loaded %s (%d steps)", wf.Name, len(wf.Steps))
	}
	return nil
}

// Names returns registered workflow names, sorted.
func (e *Executor) Names() []string {
	names := make([]string, 0, len(e.workflows))
	for name := range e.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a workflow's description.
func (e *Executor) Describe(name string) string {
	if wf, ok := e.workflows[name]; ok {
		return wf.Description
	}
	return "Unknown workflow"
}

// Execute runs the named workflow. Failed steps are skipped; successes are
// aggregated into one acknowledgment.
func (e *Executor) Execute(name string) (bool, string) {
	wf, ok := e.workflows[name]
	if !ok {
		return false, fmt.Sprintf("Unknown workflow, sir. Available: %s", strings.Join(e.Names(), ", "))
	}

	var results []string
	for _, step := range wf.Steps {
		switch step.Action {
		case "open_app":
			if ok, _ := e.apps.OpenApp(step.App); ok {
				results = append(results, "opened "+step.App)
			}
		case "close_app":
			if ok, _ := e.apps.CloseApp(step.App); ok {
				results = append(results, "closed "+step.App)
			}
		case "switch_mode":
			if e.modes.SwitchProfile(step.Mode) {
				results = append(results, "switched to "+step.Mode+" mode")
			}
		case "set_volume":
			if ok, _ := e.apps.SetVolume(step.Level); ok {
				results = append(results, fmt.Sprintf("set volume to %d%%", step.Level))
			}
		default:
			logging.Info("workflow", "%s: unknown action %q skipped", wf.Name, step.Action)
		}
	}

	if len(results) == 0 {
		return false, "Workflow execution failed, sir."
	}
	return true, fmt.Sprintf("Workflow complete, sir. I've %s.", strings.Join(results, ", "))
}
