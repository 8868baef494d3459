package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fincoach/coach/internal/agent"
	"github.com/fincoach/coach/internal/demo"
	"github.com/fincoach/coach/internal/domain"
	infraBQ "github.com/fincoach/coach/internal/infra/bigquery"
	"github.com/fincoach/coach/internal/knowledge"
	"github.com/fincoach/coach/internal/logger"
	"github.com/fincoach/coach/internal/memory"
	"github.com/fincoach/coach/internal/narrator"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chat":
		runChat(log)
	case "ask":
		runAsk(log)
	case "summary":
		runSummary(log)
	case "seed":
		runSeed(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Coach CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  chat      Start an interactive coaching session against a demo persona")
	fmt.Println("  ask       Ask a single question and print the reply")
	fmt.Println("  summary   Print a proactive monthly summary for a persona")
	fmt.Println("  seed      Import the demo personas into a BigQuery dataset")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func buildAgent(log zerolog.Logger, narratorKey, customerID string) (*agent.Agent, string, error) {
	ctx := context.Background()

	var narrate narrator.Narrator
	switch narratorKey {
	case "static":
		narrate = narrator.Static{}
	case "gemini":
		gem, err := narrator.NewGemini(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("create Gemini narrator: %w", err)
		}
		narrate = gem
	default:
		return nil, "", fmt.Errorf("unknown narrator backend %q", narratorKey)
	}

	coach, err := agent.New(agent.Config{
		Sessions:     memory.NewInMemorySessionStore(),
		Customers:    memory.NewInMemoryCustomerStore(),
		Transactions: demo.Personas(time.Now),
		Narrator:     narrate,
		Knowledge:    knowledge.NewBase(),
		Logger:       logger.Component(log, "agent"),
	})
	if err != nil {
		return nil, "", fmt.Errorf("create agent: %w", err)
	}

	sessionID, err := coach.StartSession(ctx, customerID, "")
	if err != nil {
		return nil, "", fmt.Errorf("start session: %w", err)
	}
	return coach, sessionID, nil
}

func runChat(log zerolog.Logger) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	customerID := fs.String("customer", demo.DefaultCustomerID, "Demo persona customer ID")
	narratorKey := fs.String("narrator", "static", "Narrator backend: static or gemini")
	fs.Parse(os.Args[2:])

	coach, sessionID, err := buildAgent(log, *narratorKey, *customerID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start chat session")
	}

	fmt.Printf("Chatting as %s. Type 'quit' to exit.\n", *customerID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		reply, err := coach.Chat(context.Background(), sessionID, line)
		if err != nil {
			log.Error().Err(err).Msg("Chat turn failed")
			continue
		}
		fmt.Println()
		fmt.Println(reply.Text)
		if len(reply.ToolTrace) > 0 {
			fmt.Printf("\n[tools: %s]\n", strings.Join(reply.ToolTrace, ", "))
		}
		fmt.Println()
	}
}

func runAsk(log zerolog.Logger) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	customerID := fs.String("customer", demo.DefaultCustomerID, "Demo persona customer ID")
	narratorKey := fs.String("narrator", "static", "Narrator backend: static or gemini")
	message := fs.String("message", "", "Question to ask")
	fs.Parse(os.Args[2:])

	if *message == "" {
		fmt.Fprintln(os.Stderr, "Error: -message is required")
		fs.Usage()
		os.Exit(1)
	}

	coach, sessionID, err := buildAgent(log, *narratorKey, *customerID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start session")
	}

	reply, err := coach.Chat(context.Background(), sessionID, *message)
	if err != nil {
		log.Fatal().Err(err).Msg("Chat turn failed")
	}
	fmt.Println(reply.Text)
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	customerID := fs.String("customer", demo.DefaultCustomerID, "Demo persona customer ID")
	narratorKey := fs.String("narrator", "static", "Narrator backend: static or gemini")
	fs.Parse(os.Args[2:])

	coach, sessionID, err := buildAgent(log, *narratorKey, *customerID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start session")
	}

	reply, err := coach.ProactiveSummary(context.Background(), sessionID)
	if err != nil {
		log.Fatal().Err(err).Msg("Summary failed")
	}
	fmt.Println(reply.Text)
}

func runSeed(log zerolog.Logger) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	project := fs.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID")
	dataset := fs.String("dataset", "", "BigQuery dataset holding coach tables")
	fs.Parse(os.Args[2:])

	ctx := context.Background()
	repo, err := infraBQ.NewRepository(ctx, *project, *dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	profiles := []*domain.CustomerProfile{
		demo.AlexJohnson(time.Now),
		demo.JordanLee(time.Now),
		demo.SamCarter(time.Now),
	}
	for _, profile := range profiles {
		if err := repo.ImportProfile(ctx, profile); err != nil {
			log.Fatal().Err(err).Str("customer_id", profile.CustomerID).Msg("Failed to import profile")
		}
		log.Info().
			Str("customer_id", profile.CustomerID).
			Int("transactions", len(profile.Transactions)).
			Msg("Imported demo profile")
	}
}
