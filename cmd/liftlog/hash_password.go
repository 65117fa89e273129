package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/liftlog/pkg"

	"github.com/spf13/cobra"
)

// hashPasswordCmd produces the bcrypt hashes expected in the local_users config section.
var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Read a password from stdin and print its bcrypt hash",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return errors.New("empty password")
		}

		hash, err := pkg.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
