package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func seedRolesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-roles",
		Short: "Create or refresh the student, src and admin roles",
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			deps, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}
			roles, err := deps.Roles.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			for _, role := range roles {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", role.ID, role.Name)
			}
			return nil
		}),
	}
}
