package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/noah-isme/student-portal-api/internal/models"
)

var readPasswordFunc = term.ReadPassword // mockable

func createAdminCommand() *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a user holding the admin role; the password is prompted",
		RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
			password, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			req.Password = password

			deps, err := rt.services(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := deps.Roles.SeedDefaults(cmd.Context()); err != nil {
				return err
			}
			user, err := deps.Auth.CreateUserWithRole(cmd.Context(), req, models.RoleAdmin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.StudentID, "student-id", "", "staff or student id used to log in")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("student-id")
	return cmd
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Enter password: ")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimSpace(string(pwd))
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
