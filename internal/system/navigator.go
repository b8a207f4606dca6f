package system

import (
	"fmt"
	"net/url"
	"strings"

	"valet/internal/intent"
)

// Navigate executes a model-classified app-navigation intent. Returns
// (handled, user-facing message); unknown categories are not handled.
func (c *Controller) Navigate(it intent.Intent) (bool, string) {
	switch it.Category {
	case intent.CategoryAppOpen:
		p, ok := it.Params.(intent.AppParams)
		if !ok || p.App == "" {
			return true, "Which application would you like me to open, sir?"
		}
		_, msg := c.OpenApp(p.App)
		return true, msg

	case intent.CategorySpotifyPlay:
		p, _ := it.Params.(intent.QueryParams)
		if p.Query == "" {
			return true, "What would you like to hear, sir?"
		}
		if ok, _ := c.OpenURL("https://open.spotify.com/search/" + url.PathEscape(p.Query)); ok {
			return true, fmt.Sprintf("Searching Spotify for %q, sir.", p.Query)
		}
		return true, "I couldn't reach Spotify, sir."

	case intent.CategorySpotifyControl:
		p, _ := it.Params.(intent.ControlParams)
		return true, c.spotifyControl(p.Action)

	case intent.CategoryYouTubeSearch:
		p, _ := it.Params.(intent.QueryParams)
		if p.Query == "" {
			return true, "What should I look for on YouTube, sir?"
		}
		if ok, _ := c.OpenURL("https://www.youtube.com/results?search_query=" + url.QueryEscape(p.Query)); ok {
			return true, fmt.Sprintf("Searching YouTube for %q, sir.", p.Query)
		}
		return true, "I couldn't open YouTube, sir."

	case intent.CategoryGoogleSearch:
		p, _ := it.Params.(intent.QueryParams)
		if p.Query == "" {
			return true, "What should I search for, sir?"
		}
		if ok, _ := c.OpenURL("https://www.google.com/search?q=" + url.QueryEscape(p.Query)); ok {
			return true, fmt.Sprintf("Searching Google for %q, sir.", p.Query)
		}
		return true, "I couldn't open the browser, sir."

	case intent.CategoryWhatsAppMessage:
		p, _ := it.Params.(intent.MessageParams)
		if ok, _ := c.OpenApp("WhatsApp"); ok {
			if p.Contact != "" {
				return true, fmt.Sprintf("WhatsApp is open, sir. Your message to %s is ready to send.", p.Contact)
			}
			return true, "WhatsApp is open, sir."
		}
		return true, "I couldn't open WhatsApp, sir."

	case intent.CategoryEmailSearch:
		p, _ := it.Params.(intent.QueryParams)
		if ok, _ := c.OpenApp("Mail"); ok {
			if p.Query != "" {
				return true, fmt.Sprintf("Mail is open, sir. Search for %q when ready.", p.Query)
			}
			return true, "Mail is open, sir."
		}
		return true, "I couldn't open Mail, sir."

	case intent.CategoryWebsiteVisit:
		p, _ := it.Params.(intent.SiteParams)
		if p.URL == "" {
			return true, "Which site would you like to visit, sir?"
		}
		_, msg := c.OpenURL(p.URL)
		return true, msg
	}

	return false, ""
}

// spotifyControl drives the Spotify app via AppleScript.
func (c *Controller) spotifyControl(action string) string {
	var script string
	switch strings.ToLower(action) {
	case "pause":
		script = `tell application "Spotify" to pause`
	case "resume", "play":
		script = `tell application "Spotify" to play`
	case "next":
		script = `tell application "Spotify" to next track`
	case "previous":
		script = `tell application "Spotify" to previous track`
	case "current":
		script = `tell application "Spotify" to name of current track`
	default:
		return "I can pause, resume, or skip tracks, sir."
	}
	if err := c.run("osascript", "-e", script); err != nil {
		return "Spotify doesn't appear to be running, sir."
	}
	return "Done, sir."
}
