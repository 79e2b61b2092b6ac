package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/storage/model"
)

func (a *cli) registerCmd() *cobra.Command {
	var data model.Registration
	cmd := &cobra.Command{
		Use:       "register <student|staff|issuer>",
		Short:     "Register a new user",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"student", "staff", "issuer"},
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := model.ParseRole(args[0])
			if err != nil {
				return err
			}
			profile, err := a.engine.Register(role, data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), profile)
		},
	}
	cmd.Flags().StringVar(&data.Name, "name", "", "full name")
	cmd.Flags().StringVar(&data.Email, "email", "", "email address")
	cmd.Flags().StringVar(&data.WalletAddress, "wallet", "", "wallet address")
	cmd.Flags().StringVar(&data.Organization, "organization", "", "organization (staff)")
	cmd.Flags().StringVar(&data.Institution, "institution", "", "institution (issuers)")
	return cmd
}

func (a *cli) signInCmd() *cobra.Command {
	var creds lifecycle.Credentials
	cmd := &cobra.Command{
		Use:   "signin <student|staff|issuer>",
		Short: "Sign in as a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := model.ParseRole(args[0])
			if err != nil {
				return err
			}
			creds.Role = role
			_, profile, err := a.engine.SignIn(cmd.Context(), creds)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", profile.Name, profile.Role)
			return err
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "email address")
	cmd.Flags().StringVar(&creds.WalletAddress, "wallet", "", "wallet address (students)")
	return cmd
}

func (a *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.SignOut()
		},
	}
}

func (a *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, ok := lifecycle.ActorFromContext(a.session(cmd))
			if !ok {
				return lifecycle.ErrNoSession
			}
			return printJSON(cmd.OutOrStdout(), actor)
		},
	}
}
