package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bookstore/internal/auth"
	"bookstore/internal/config"
	"bookstore/internal/storage"
	"bookstore/internal/user"
	"bookstore/package/client/jsondb"
	"bookstore/package/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "admin",
		Short:        "Manage the bookstore store offline",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yml", "path to the YAML configuration")

	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	userCmd.AddCommand(newUserCreateCmd(&configPath), newUserListCmd(&configPath))
	root.AddCommand(userCmd)
	return root
}

func newUserCreateCmd(configPath *string) *cobra.Command {
	var email, role, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user, typically the first administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(fmt.Sprintf("Password for %s: ", email)); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}

			return withUsers(*configPath, func(users *user.Service) error {
				created, err := users.Create(user.CreateRequest{Email: email, Password: password, Role: role})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s with id %s\n", created.Role, created.Email, created.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the account")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdministrator, "role of the account (user or administrator)")
	cmd.Flags().StringVar(&password, "password", "", "password; prompted for when omitted")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(*configPath, func(users *user.Service) error {
				all, err := users.List(map[string]any{})
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEMAIL\tROLE")
				for _, u := range all {
					fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Email, u.Role)
				}
				return w.Flush()
			})
		},
	}
}

// withUsers opens the configured store for the duration of fn.
func withUsers(configPath string, fn func(users *user.Service) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	logger.Configure(cfg.Debug(), cfg.LogFormat)

	db, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer func(db *jsondb.DB) {
		if err := db.Close(); err != nil {
			logger.Log.Error("Can not close storage")
		}
	}(db)

	return fn(user.NewService(db))
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return strings.TrimSpace(string(bytePassword)), nil
}
