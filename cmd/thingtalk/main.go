// Command thingtalk type-checks serialized ThingTalk programs against a
// Thingpedia schema server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "thingtalk",
	Short: "A toolbox for the ThingTalk language.",
	Long:  "A toolbox for the ThingTalk virtual-assistant language.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
