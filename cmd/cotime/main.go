// Command cotime runs the accountability ledger server and signs requests for it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set at build time via ldflags).
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cotime",
		Short: "Group accountability ledger with signed daily check-ins",
		Long: `cotime tracks group commitments: members join a project and submit one
signed check-in per UTC day to build a streak.

Examples:
  cotime serve
  cotime keygen
  cotime sign checkin --key $KEY --project 0 --proof QmProof
  cotime sign action --key $KEY --action join_project --project 0`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newKeygenCmd())
	root.AddCommand(newSignCmd())
	return root
}
