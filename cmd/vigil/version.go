package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gosuda/vigil/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vigil version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("vigil " + version.Version)
		},
	}
}
