package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures a Client. Profiles maps a profile name (coding,
// research, general) to the Ollama model serving it. Persona is the system
// prompt injected at the head of every chat; it is fixed at construction.
type Options struct {
	BaseURL        string
	Profiles       map[string]string
	DefaultProfile string
	Persona        string
}

// Client talks to a local Ollama server for chat and one-shot generation.
type Client struct {
	baseURL  string
	profiles map[string]string
	profile  string
	model    string
	persona  string
	client   *http.Client
}

// New creates a reasoning-service client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:11434"
	}
	model := opts.Profiles[opts.DefaultProfile]
	if model == "" {
		model = "qwen2.5-coder:latest"
	}
	return &Client{
		baseURL:  opts.BaseURL,
		profiles: opts.Profiles,
		profile:  opts.DefaultProfile,
		model:    model,
		persona:  opts.Persona,
		client: &http.Client{
			Timeout: 120 * time.Second, // generation can take a while
		},
	}
}

// SwitchProfile selects the model registered for the named profile.
// Returns false if the profile is unknown.
func (c *Client) SwitchProfile(name string) bool {
	model, ok := c.profiles[name]
	if !ok {
		return false
	}
	c.profile = name
	c.model = model
	return true
}

// Profile returns the active profile name.
func (c *Client) Profile() string { return c.profile }

// Model returns the active model name.
func (c *Client) Model() string { return c.model }

// ProfileNames returns the known profile names, sorted.
func (c *Client) ProfileNames() []string {
	names := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

// Chat sends the conversation history plus the persona system prompt and any
// remembered facts, and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, history []Message, memories []string) (string, error) {
	system := c.persona
	if len(memories) > 0 {
		var sb strings.Builder
		sb.WriteString(system)
		sb.WriteString("\n\nIMPORTANT FACTS TO REMEMBER:\n")
		for _, m := range memories {
			sb.WriteString("- ")
			sb.WriteString(m)
			sb.WriteString("\n")
		}
		system = sb.String()
	}

	messages := make([]Message, 0, len(history)+1)
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, history...)

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(msg))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return result.Message.Content, nil
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs a single prompt without conversation context or persona.
// Used by the intent classifier.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(msg))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return result.Response, nil
}
