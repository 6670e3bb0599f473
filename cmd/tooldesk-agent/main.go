// Command tooldesk-agent connects an OpenAI-compatible model to a
// running tooldesk server and lets it work through the served tools,
// one query per input line.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v2/option"
	"github.com/spf13/cobra"

	"github.com/tooldesk/tooldesk/internal/agent"
)

var (
	version   = ""
	gitCommit = ""
	buildTime = ""
)

var (
	serverURL string
	model     string
)

var rootCmd = &cobra.Command{
	Use:           "tooldesk-agent",
	Short:         "LLM chat loop against a tooldesk server",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8000", "tooldesk server URL")
	rootCmd.Flags().StringVar(&model, "model", "gpt-4o-mini", "model name")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(".env"); err == nil {
		godotenv.Load(".env")
	}
	if !cmd.Flags().Changed("server") {
		if v := os.Getenv("TOOLDESK_SERVER_URL"); v != "" {
			serverURL = v
		}
	}
	if !cmd.Flags().Changed("model") {
		if v := os.Getenv("TOOLDESK_MODEL"); v != "" {
			model = v
		}
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	if version != "" {
		fmt.Printf("tooldesk-agent %s (commit %s, built %s)\n", version, gitCommit, buildTime)
	}

	client := agent.NewClient(serverURL)
	tools, err := client.Connect(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Connected to %s with %d tools. Type a query, Ctrl-D to exit.\n", serverURL, len(tools))

	a := agent.NewAgent(client, model, opts...)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		answer, err := a.ProcessQuery(cmd.Context(), query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
	fmt.Println()
	return scanner.Err()
}
