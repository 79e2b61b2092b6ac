package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/storage/model"
)

func (a *cli) requestCmd() *cobra.Command {
	var input lifecycle.RequestInput
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request a credential from an issuer (students)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.engine.SubmitRequest(a.session(cmd), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), req)
		},
	}
	cmd.Flags().StringVar(&input.IssuerWalletAddress, "issuer-wallet", "", "wallet address of the issuer")
	cmd.Flags().StringVar(&input.IssuerName, "issuer-name", "", "name of an unregistered issuer")
	cmd.Flags().StringVar(&input.IssuerInstitution, "issuer-institution", "", "institution of an unregistered issuer")
	cmd.Flags().StringVar(&input.CredentialTitle, "title", "", "title of the requested credential")
	cmd.Flags().StringVar(&input.Description, "description", "", "description")
	return cmd
}

// requestsCmd lists the own requests for students and the pending requests
// for issuers
func (a *cli) requestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requests",
		Short: "List credential requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.session(cmd)
			actor, ok := lifecycle.ActorFromContext(ctx)
			if !ok {
				return lifecycle.ErrNoSession
			}
			var (
				list []model.CredentialRequest
				err  error
			)
			if actor.Role == model.RoleIssuer {
				list, err = a.engine.PendingRequests(ctx)
			} else {
				list, err = a.engine.MyRequests(ctx)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), nonNil(list))
		},
	}
}

func (a *cli) approveCmd() *cobra.Command {
	var metadata string
	cmd := &cobra.Command{
		Use:   "approve <request-id>",
		Short: "Approve a pending request and mint its credential (issuers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := model.ParseMetadata([]byte(metadata))
			if err != nil {
				return err
			}
			_, credential, err := a.engine.Approve(a.session(cmd), args[0], md)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), credential)
		},
	}
	cmd.Flags().StringVar(&metadata, "metadata", "", "JSON object with additional scalar information")
	return cmd
}

func (a *cli) rejectCmd() *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "reject <request-id>",
		Short: "Reject a pending request (issuers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.engine.Reject(a.session(cmd), args[0], note)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Rejected request %s: %s\n", req.ID, req.RejectionNote)
			return err
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "reason for the rejection")
	return cmd
}

func (a *cli) mintCmd() *cobra.Command {
	var (
		input    lifecycle.MintInput
		metadata string
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a credential without a request (issuers)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := model.ParseMetadata([]byte(metadata))
			if err != nil {
				return err
			}
			input.Metadata = md
			credential, err := a.engine.Mint(a.session(cmd), input)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), credential)
		},
	}
	cmd.Flags().StringVar(&input.StudentWalletAddress, "student-wallet", "", "wallet address of the student")
	cmd.Flags().StringVar(&input.Title, "title", "", "title of the credential")
	cmd.Flags().StringVar(&input.Description, "description", "", "description")
	cmd.Flags().StringVar(&metadata, "metadata", "", "JSON object with additional scalar information")
	return cmd
}

// credentialsCmd lists held credentials for students and issued credentials
// for issuers
func (a *cli) credentialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credentials",
		Short: "List credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.session(cmd)
			actor, ok := lifecycle.ActorFromContext(ctx)
			if !ok {
				return lifecycle.ErrNoSession
			}
			var (
				list []model.IssuedCredential
				err  error
			)
			if actor.Role == model.RoleIssuer {
				list, err = a.engine.IssuedByMe(ctx)
			} else {
				list, err = a.engine.MyCredentials(ctx)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), nonNil(list))
		},
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
