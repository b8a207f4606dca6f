package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"valet/internal/logging"
)

// ConfidenceThreshold is the minimum classifier confidence for a result to
// be actionable. Below it, input routes to conversation. Deliberately
// conservative: a false negative is a chat message, a false positive
// hijacks one.
const ConfidenceThreshold = 0.7

// Generator is the reasoning-service slice the detector needs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Detector is the probabilistic resolution layer: it asks the reasoning
// service to classify input that no rule matched.
type Detector struct {
	llm       Generator
	threshold float64
}

// NewDetector creates a Detector with the default threshold.
func NewDetector(llm Generator) *Detector {
	return &Detector{llm: llm, threshold: ConfidenceThreshold}
}

var unknownIntent = Intent{Category: CategoryUnknown, Params: NoParams{}, Confidence: 0, Source: SourceModel}

// Detect classifies the input. Transport failures and malformed classifier
// output degrade to CategoryUnknown with confidence 0; Detect never fails.
func (d *Detector) Detect(ctx context.Context, text string) Intent {
	response, err := d.llm.Generate(ctx, detectionPrompt(text))
	if err != nil {
		logging.Info("intent", "classifier unreachable: %v", err)
		return unknownIntent
	}

	parsed, ok := parseClassifierResponse(response)
	if !ok {
		logging.Info("intent", "classifier output unparseable: %s", logging.Truncate(response, 80))
		return unknownIntent
	}

	category := Category(strings.ToUpper(strings.TrimSpace(parsed.IntentType)))
	if !knownCategory(category) {
		logging.Debug("intent", "classifier returned unknown category %q", parsed.IntentType)
		return unknownIntent
	}

	confidence := parsed.Confidence
	if confidence < 0 || confidence > 1 {
		confidence = 0
	}

	return Intent{
		Category:   category,
		Params:     paramsFromData(category, parsed.Data),
		Confidence: confidence,
		Source:     SourceModel,
	}
}

// Actionable reports whether a detected intent should be executed: the
// category must be in the actionable subset and confidence at or above the
// threshold.
func (d *Detector) Actionable(it Intent) bool {
	return ActionableCategory(it.Category) && it.Confidence >= d.threshold
}

type classifierResponse struct {
	IntentType string            `json:"intent_type"`
	Data       map[string]string `json:"data"`
	Confidence float64           `json:"confidence"`
	Reasoning  string            `json:"reasoning"`
}

var reJSONObject = regexp.MustCompile(`(?s)\{.*\}`)

// parseClassifierResponse pulls the first JSON object out of the response,
// tolerating surrounding prose. A near-miss object is run through jsonrepair
// before giving up.
func parseClassifierResponse(response string) (classifierResponse, bool) {
	var parsed classifierResponse

	raw := reJSONObject.FindString(response)
	if raw == "" {
		return parsed, false
	}

	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return parsed, true
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return parsed, false
	}
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return parsed, false
	}
	return parsed, true
}

func knownCategory(c Category) bool {
	switch c {
	case CategoryAppOpen, CategorySpotifyPlay, CategorySpotifyControl,
		CategoryYouTubeSearch, CategoryGoogleSearch, CategoryWhatsAppMessage,
		CategoryEmailSearch, CategoryWebsiteVisit, CategoryGeneralChat, CategoryUnknown:
		return true
	}
	return false
}

func paramsFromData(c Category, data map[string]string) Params {
	switch c {
	case CategoryAppOpen:
		return AppParams{App: data["app"]}
	case CategorySpotifyPlay:
		return QueryParams{Query: data["query"]}
	case CategorySpotifyControl:
		return ControlParams{Action: data["action"]}
	case CategoryYouTubeSearch, CategoryGoogleSearch:
		return QueryParams{Query: data["query"]}
	case CategoryWhatsAppMessage:
		return MessageParams{Contact: data["contact"], Message: data["message"]}
	case CategoryEmailSearch:
		return QueryParams{Query: data["query"]}
	case CategoryWebsiteVisit:
		return SiteParams{URL: data["website"]}
	default:
		return NoParams{}
	}
}

func detectionPrompt(input string) string {
	return fmt.Sprintf(`Analyze this user input and detect their intent. Respond with ONLY valid JSON.

User Input: %q

Possible intents:
- APP_OPEN: Opening a general application (Calculator, Notes, Safari, etc.)
- SPOTIFY_PLAY: ONLY if user explicitly asks to play music/song/artist
- SPOTIFY_CONTROL: Controlling Spotify (pause, resume, next, previous)
- YOUTUBE_SEARCH: Searching for and playing a video on YouTube
- GOOGLE_SEARCH: Searching Google
- WHATSAPP_MESSAGE: Sending a message via WhatsApp
- EMAIL_SEARCH: Searching emails in Mail app
- WEBSITE_VISIT: Opening a website or browser with specific URL
- GENERAL_CHAT: Default for conversation, questions, ideas, or if unclear
- UNKNOWN: Can't determine intent

Extract data intelligently:
- For APP_OPEN: extract "app" (Calculator, Notes, Safari, Chrome, etc.)
- For SPOTIFY_PLAY: extract "query" (song/artist/playlist, autocorrect typos)
- For SPOTIFY_CONTROL: extract "action" (pause, resume, next, previous, current)
- For WHATSAPP_MESSAGE: extract "contact" and "message"
- For YOUTUBE_SEARCH / GOOGLE_SEARCH / EMAIL_SEARCH: extract "query"
- For WEBSITE_VISIT: extract "website"

Examples:
- "open calculator" -> APP_OPEN, app: "Calculator"
- "go to youtube.com" -> WEBSITE_VISIT, website: "youtube.com"
- "yo put on some lofi" -> SPOTIFY_PLAY, query: "lofi"
- "pause" -> SPOTIFY_CONTROL, action: "pause"
- "message john saying hey" -> WHATSAPP_MESSAGE, contact: "john", message: "hey"
- "search python on youtube" -> YOUTUBE_SEARCH, query: "python"
- "what time is it" -> GENERAL_CHAT

Respond with ONLY this JSON structure:
{
    "intent_type": "SPOTIFY_PLAY",
    "data": {"query": "lo-fi beats"},
    "confidence": 0.95,
    "reasoning": "User wants to play lo-fi beats on Spotify"
}`, input)
}
