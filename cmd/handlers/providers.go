package handlers

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wordsmith/internal/config"
	"wordsmith/internal/search"
	"wordsmith/internal/visual"
)

// provider is the reporting surface every adapter exposes.
type provider interface {
	Name() string
	IsConfigured() bool
	CostPerThousand() float64
}

// textLLMInfo reports on the text LLM without constructing a client,
// which requires credentials.
type textLLMInfo struct{}

func (textLLMInfo) Name() string             { return "gemini" }
func (textLLMInfo) IsConfigured() bool       { return config.TextLLMKey() != "" }
func (textLLMInfo) CostPerThousand() float64 { return 2.50 }

// NewProvidersCmd creates the providers command.
func NewProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List provider adapters and their credential status",
		Run: func(cmd *cobra.Command, args []string) {
			providers := []provider{
				textLLMInfo{},
				visual.NewClient(),
				search.NewSerpAPIImages(),
				search.NewTaskSERPImages(),
				search.NewTaskSERPText(),
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tCONFIGURED\t$/1000 CALLS")
			for _, p := range providers {
				fmt.Fprintf(w, "%s\t%t\t%.2f\n", p.Name(), p.IsConfigured(), p.CostPerThousand())
			}
			w.Flush()
		},
	}
}
