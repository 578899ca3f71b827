package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/credvault/internal/secret"
)

func newPasswordCmd() *cobra.Command {
	var (
		length int
		opts   = secret.DefaultPasswordOptions()
	)

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Print a random password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := secret.GenerateRandomPassword(length, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), password)
			return err
		},
	}

	cmd.Flags().IntVarP(&length, "length", "l", 16, "number of characters")
	cmd.Flags().BoolVar(&opts.Lowercase, "lowercase", true, "include lowercase letters")
	cmd.Flags().BoolVar(&opts.Uppercase, "uppercase", true, "include uppercase letters")
	cmd.Flags().BoolVar(&opts.Numbers, "numbers", true, "include digits")
	cmd.Flags().BoolVar(&opts.Symbols, "symbols", true, "include symbols")

	return cmd
}
