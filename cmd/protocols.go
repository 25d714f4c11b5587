package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/stratum/pkg/headers"
	"firestige.xyz/stratum/pkg/packet"
)

var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List registered protocols and their bindings",
	Run: func(cmd *cobra.Command, args []string) {
		runProtocolsCommand()
	},
}

func runProtocolsCommand() {
	reg := packet.NewRegistry()
	headers.RegisterAll(reg)

	for _, name := range reg.Protocols() {
		fmt.Println(name)
		for _, b := range reg.Bindings(name) {
			if b.Match != nil {
				fmt.Printf("  %s (predicate) -> %s\n", b.Field, b.Target)
				continue
			}
			fmt.Printf("  %s == %d -> %s\n", b.Field, b.Value, b.Target)
		}
	}
}
