package focus

import (
	"fmt"
	"strings"
	"time"
)

// escalateAfter is the number of blocked requests tolerated before the
// session offers to end itself. The 4th blocked request escalates.
const escalateAfter = 3

// Session is a time-boxed focus window that vetoes distracting app launches.
// At most one session exists at a time; expiry is evaluated lazily on each
// check, so no timer is needed.
type Session struct {
	Start time.Time
	End   time.Time
	Mode  string

	allowed       []string
	paused        bool
	interruptions int

	now func() time.Time
}

// NewSession starts a focus session for the given duration. Allowed app
// names are matched case-insensitively.
func NewSession(duration time.Duration, allowedApps []string, mode string) *Session {
	now := time.Now()
	s := &Session{
		Start: now,
		End:   now.Add(duration),
		Mode:  mode,
		now:   time.Now,
	}
	for _, app := range allowedApps {
		s.allowed = append(s.allowed, strings.ToLower(strings.TrimSpace(app)))
	}
	return s
}

// Active reports whether the session is still in force. Pure in
// (now, End, paused).
func (s *Session) Active() bool {
	if s.paused {
		return false
	}
	return s.now().Before(s.End)
}

// Remaining returns whole minutes left in the session, zero if inactive.
func (s *Session) Remaining() int {
	if !s.Active() {
		return 0
	}
	remaining := s.End.Sub(s.now()).Minutes()
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// AppAllowed reports whether an app may be opened during the session.
// Matching is case-insensitive, exact or substring in either direction.
func (s *Session) AppAllowed(name string) bool {
	app := strings.ToLower(strings.TrimSpace(name))
	for _, allowed := range s.allowed {
		if allowed == app || strings.Contains(app, allowed) || strings.Contains(allowed, app) {
			return true
		}
	}
	return false
}

// HandleBlocked records a blocked request and returns the veto response.
// Past escalateAfter interruptions the response offers to end the session.
func (s *Session) HandleBlocked(name string) string {
	s.interruptions++

	if s.interruptions > escalateAfter {
		return fmt.Sprintf("Sir, you've requested distractions %d times. Shall I end focus mode?", s.interruptions)
	}

	remaining := s.Remaining()
	responses := []string{
		fmt.Sprintf("I'm afraid that would break focus, sir. %d minutes remaining.", remaining),
		fmt.Sprintf("You're in focus mode, sir. Perhaps after the session? (%d min left)", remaining),
		fmt.Sprintf("That app is blocked during focus, sir. %d minutes to go.", remaining),
	}
	return responses[(s.interruptions-1)%len(responses)]
}

// Interruptions returns the blocked-request count.
func (s *Session) Interruptions() int { return s.interruptions }

// Pause suspends the session without discarding it.
func (s *Session) Pause() { s.paused = true }

// Resume lifts a pause.
func (s *Session) Resume() { s.paused = false }

// Paused reports whether the session is paused.
func (s *Session) Paused() bool { return s.paused }

// EndSummary describes the finished session.
func (s *Session) EndSummary() string {
	duration := int(s.now().Sub(s.Start).Minutes())
	summary := fmt.Sprintf("Focus session complete, sir.\n- Duration: %d minutes\n- Mode: %s\n- Interruption attempts: %d\n",
		duration, s.Mode, s.interruptions)

	switch {
	case s.interruptions == 0:
		summary += "\nExcellent focus, sir. Well done."
	case s.interruptions < 3:
		summary += "\nGood discipline, sir."
	default:
		summary += "\nPerhaps shorter sessions next time, sir?"
	}
	return summary
}
