package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached roster files",
	}

	var department string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached roster for a department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cache().Clear(department); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared cached roster for %s\n", department)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&department, "department", "", "Department label")
	_ = clearCmd.MarkFlagRequired("department")

	cmd.AddCommand(clearCmd)
	return cmd
}
