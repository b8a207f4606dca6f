package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"valet/internal/config"
	"valet/internal/dispatch"
	"valet/internal/github"
	"valet/internal/intent"
	"valet/internal/llm"
	"valet/internal/logging"
	"valet/internal/memory"
	"valet/internal/notify"
	"valet/internal/sched"
	"valet/internal/system"
	"valet/internal/workflow"
)

const persona = `You are a refined personal valet in the manner of a British butler.
Address the user as "sir" unless you know their name. Be concise, capable,
and lightly witty. You help with scheduling, focus, system control, and
conversation. Keep replies short unless asked to elaborate.`

// exitPhrases end the session.
var exitPhrases = map[string]bool{
	"exit":             true,
	"quit":             true,
	"that will be all": true,
}

func main() {
	voice := flag.Bool("voice", false, "start in voice mode")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		logging.Debug("main", "loaded .env")
	}

	cfg := config.New()
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("[main] could not create state dir: %v", err)
	}

	if *voice {
		// Speech capture needs the desktop audio stack; the command loop is
		// identical either way.
		logging.Info("main", "voice mode unavailable in this build, using text")
	}

	store := memory.NewStore(memory.Paths{
		Preferences: cfg.PreferencesPath(),
		History:     cfg.HistoryPath(),
		Audit:       cfg.AuditPath(),
	}, cfg.MaxHistoryTurns, cfg.MaxAuditEntries)
	store.Load()

	reasoner := llm.New(llm.Options{
		BaseURL:        cfg.OllamaURL,
		Profiles:       cfg.Profiles,
		DefaultProfile: cfg.DefaultProfile,
		Persona:        persona,
	})

	controller := system.NewController()

	workflows := workflow.NewExecutor(controller, reasoner)
	if err := workflows.LoadDir(cfg.WorkflowDir()); err != nil {
		logging.Info("main", "could not load workflows: %v", err)
	}

	notifier := notify.New(os.Stdout)
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		if err := notifier.EnableDiscord(cfg.DiscordToken, cfg.DiscordChannelID); err != nil {
			logging.Info("main", "discord disabled: %v", err)
		}
	}

	scheduler := sched.New(cfg.TasksPath(), sched.Executors{
		Notify:      notifier.Notify,
		OpenApp:     controller.OpenApp,
		RunWorkflow: workflows.Execute,
	})
	scheduler.Load()

	dispatcher := dispatch.New(dispatch.Options{
		Detector:  intent.NewDetector(reasoner),
		System:    controller,
		Scheduler: scheduler,
		Workflows: workflows,
		Repos:     github.New(cfg.GitHubToken),
		Profiles:  reasoner,
		Memory:    store,
	})

	runLoop(store, reasoner, scheduler, dispatcher)
}

func runLoop(store *memory.Store, reasoner *llm.Client, scheduler *sched.Scheduler, dispatcher *dispatch.Dispatcher) {
	title := color.New(color.FgCyan, color.Bold)
	assistant := color.New(color.FgCyan)
	prompt := color.New(color.FgGreen)

	title.Println(greeting(store.UserName()))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		scheduler.RunPending()

		prompt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if exitPhrases[strings.ToLower(input)] {
			assistant.Println("\nVery good, sir. Until next time.")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		handled, response := dispatcher.Handle(ctx, input)
		if !handled {
			if response != "" {
				// Focus session expired since the last input.
				assistant.Println("\n" + response + "\n")
			}
			response = converse(ctx, store, reasoner, input)
		}
		cancel()

		assistant.Println("\n" + response + "\n")
	}
}

// converse routes non-command input through the reasoning service with the
// bounded history and remembered facts.
func converse(ctx context.Context, store *memory.Store, reasoner *llm.Client, input string) string {
	if err := store.AddTurn("user", input); err != nil {
		logging.Info("main", "could not save turn: %v", err)
	}

	memories := store.CustomMemories()
	if name := store.UserName(); name != "" {
		memories = append(memories, "The user's name is "+name+".")
	}

	history := store.History()
	messages := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	reply, err := reasoner.Chat(ctx, messages, memories)
	if err != nil {
		logging.Info("main", "chat failed: %v", err)
		return "I'm sorry, sir. My reasoning service appears to be offline."
	}

	if err := store.AddTurn("assistant", reply); err != nil {
		logging.Info("main", "could not save turn: %v", err)
	}
	return reply
}

func greeting(name string) string {
	who := "sir"
	if name != "" {
		who = name
	}
	switch h := time.Now().Hour(); {
	case h < 12:
		return fmt.Sprintf("Good morning, %s. How may I be of service?", who)
	case h < 18:
		return fmt.Sprintf("Good afternoon, %s. How may I be of service?", who)
	default:
		return fmt.Sprintf("Good evening, %s. How may I be of service?", who)
	}
}
