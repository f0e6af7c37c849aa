package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docvault/internal/auth"
)

func newHashCodeCmd() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "hash-code [code]",
		Short: "Print a bcrypt hash of a 6-digit access code for ACCESS_CODE_HASH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var code string
			switch {
			case fromStdin:
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read code: %w", err)
				}
				code = strings.TrimSpace(line)
			case len(args) == 1:
				code = args[0]
			default:
				return fmt.Errorf("pass the code as an argument or use --stdin")
			}

			hash, err := auth.HashCode(code)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the code from stdin instead of the argument list")
	return cmd
}
