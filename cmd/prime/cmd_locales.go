package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dialogprime/internal/manifest"
)

var localesCmd = &cobra.Command{
	Use:   "locales [manifest]",
	Short: "List the locales reachable in a manifest's recognizer tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manifest.Load(args[0])
		if err != nil {
			return err
		}
		locales := manifest.Locales(m.Dialog)
		if len(locales) == 0 {
			fmt.Println("(no locale-specific recognizers; only the default applies)")
			return nil
		}
		for _, loc := range locales {
			fmt.Println(loc)
		}
		return nil
	},
}
