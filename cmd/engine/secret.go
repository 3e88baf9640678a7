package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"applicant-engine/internal/secrets"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the IMAP password in the OS keyring",
}

var secretSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the IMAP password (read from stdin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return eris.Wrap(err, "read password from stdin")
		}
		account := secrets.IMAPKeyringAccount(cfg)
		if err := secrets.SetIMAPPassword(account, strings.TrimRight(line, "\r\n")); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored password for %s\n", account)
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored IMAP password",
	RunE: func(cmd *cobra.Command, args []string) error {
		account := secrets.IMAPKeyringAccount(cfg)
		if err := secrets.DeleteIMAPPassword(account); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted password for %s\n", account)
		return nil
	},
}

func init() {
	secretCmd.AddCommand(secretSetCmd, secretDeleteCmd)
	rootCmd.AddCommand(secretCmd)
}
