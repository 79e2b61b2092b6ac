package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/credhouse/credhouse/clipboard"
	"github.com/credhouse/credhouse/verification"
)

func (a *cli) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <verification-url | address [credential-id]>",
		Short: "Verify a credential or show the profile of an address",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params verification.URLParams
			if len(args) == 1 && strings.Contains(args[0], "=") {
				params = verification.ParseURLParams(args[0])
			} else {
				params.Address = args[0]
				if len(args) == 2 {
					params.CredentialID = args[1]
				}
			}
			if params.IsProfile() {
				profile, err := a.engine.Profile(cmd.Context(), params.Address)
				if err != nil {
					return errors.New(verification.HandleURLError(err))
				}
				return printJSON(cmd.OutOrStdout(), profile)
			}
			result, err := a.engine.Verify(cmd.Context(), params.Address, params.CredentialID)
			if err != nil {
				return errors.New(verification.HandleURLError(err))
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

type linkFlags struct {
	address string
	baseURL string
}

func (f *linkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.address, "address", "", "wallet address, defaults to the holder")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "origin of the verification page, defaults to server.public_url")
}

func (a *cli) urlCmd() *cobra.Command {
	var (
		link    linkFlags
		profile bool
		short   bool
	)
	cmd := &cobra.Command{
		Use:   "url <credential-id>",
		Short: "Print the verification url of a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credential, err := a.engine.Credential(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			wallet := link.address
			if wallet == "" {
				wallet = credential.StudentWalletAddress
			}
			var u string
			if profile {
				u, err = a.protocol.GenerateProfileURL(wallet, link.baseURL)
			} else {
				u, err = a.protocol.GenerateVerificationURL(wallet, credential.ID, link.baseURL)
			}
			if err != nil {
				return err
			}
			if short {
				u = verification.SanitizeURLForDisplay(u, 0)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), u)
			return err
		},
	}
	link.register(cmd)
	cmd.Flags().BoolVar(&profile, "profile", false, "print the profile url of the wallet instead")
	cmd.Flags().BoolVar(&short, "short", false, "shorten the url for display")
	return cmd
}

func (a *cli) shareCmd() *cobra.Command {
	var link linkFlags
	cmd := &cobra.Command{
		Use:   "share <credential-id>",
		Short: "Copy the verification url of a credential to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credential, err := a.engine.Credential(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			wallet := link.address
			if wallet == "" {
				wallet = credential.StudentWalletAddress
			}
			protocol := a.protocol
			if link.baseURL != "" {
				protocol.Origin = link.baseURL
			}
			share, err := protocol.CreateShareableURL(*credential, wallet)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err = fmt.Fprintf(out, "%s\n%s\n", share.Title, share.Text); err != nil {
				return err
			}
			result := clipboard.NewCopier(out, cmd.InOrStdin()).Copy(share.URL)
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), clipboard.Message(result))
			return result.Err
		},
	}
	link.register(cmd)
	return cmd
}

func (a *cli) qrCmd() *cobra.Command {
	var (
		link linkFlags
		file string
		size int
	)
	cmd := &cobra.Command{
		Use:   "qr <credential-id>",
		Short: "Write a QR code with the verification url of a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			credential, err := a.engine.Credential(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			wallet := link.address
			if wallet == "" {
				wallet = credential.StudentWalletAddress
			}
			u, err := a.protocol.GenerateVerificationURL(wallet, credential.ID, link.baseURL)
			if err != nil {
				return err
			}
			png, err := verification.QRCodePNG(u, size)
			if err != nil {
				return err
			}
			if err = os.WriteFile(file, png, 0o644); err != nil {
				return errors.WithStack(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote QR code for %s to %s\n", u, file)
			return err
		},
	}
	link.register(cmd)
	cmd.Flags().StringVarP(&file, "out", "o", "credential.png", "png file to write")
	cmd.Flags().IntVar(&size, "size", verification.DefaultQRSize, "edge length in pixels")
	return cmd
}
