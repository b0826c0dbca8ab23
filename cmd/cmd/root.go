package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"wordsmith/cmd/handlers"
	"wordsmith/internal/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wordsmith",
	Short: "Wordsmith generates long-form articles from a keyword batch.",
	Long: `Wordsmith turns a batch of keywords plus a company URL into complete,
publishable articles: grounded drafts with citations, cleaned HTML,
Markdown and JSON exports, and generated slot images.

A batch request is a JSON file:

  {
    "keywords": [{"keyword": "solar panels"}, {"keyword": "heat pumps"}],
    "company_url": "https://acme.example.com"
  }

Run it with:

  wordsmith generate batch.json --output out/`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wordsmith.yaml)")

	rootCmd.AddCommand(handlers.NewGenerateCmd())
	rootCmd.AddCommand(handlers.NewProvidersCmd())
}

// initConfig loads the optional .env file and the viper config.
func initConfig() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
		}
	}
	if err := config.Init(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
