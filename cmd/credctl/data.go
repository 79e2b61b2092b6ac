package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/credhouse/credhouse/cmd/credhouse/config"
	"github.com/credhouse/credhouse/storage"
)

func (a *cli) exportCmd() *cobra.Command {
	var (
		format string
		file   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all users, requests and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var out io.Writer = cmd.OutOrStdout()
			if file != "" {
				f, err := os.Create(file)
				if err != nil {
					return errors.WithStack(err)
				}
				defer f.Close()
				out = f
			}
			return storage.TakeSnapshot(a.backs).Encode(out, storage.SnapshotFormat(format))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(storage.SnapshotJSON), "json, yaml or msgpack")
	cmd.Flags().StringVarP(&file, "out", "o", "", "file to write, defaults to stdout")
	return cmd
}

func (a *cli) importCmd() *cobra.Command {
	var (
		format string
		file   string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace all users, requests and credentials with an export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "" {
				f, err := os.Open(file)
				if err != nil {
					return errors.WithStack(err)
				}
				defer f.Close()
				in = f
			}
			snap, err := storage.DecodeSnapshot(in, storage.SnapshotFormat(format))
			if err != nil {
				return err
			}
			if err = snap.Restore(a.backs.KV); err != nil {
				return err
			}
			_, err = fmt.Fprintf(
				cmd.OutOrStdout(), "Imported %d users, %d requests and %d credentials\n",
				len(snap.RegisteredUsers), len(snap.CredentialRequests), len(snap.IssuedCredentials),
			)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(storage.SnapshotJSON), "json, yaml or msgpack")
	cmd.Flags().StringVarP(&file, "in", "i", "", "file to read, defaults to stdin")
	return cmd
}

func (a *cli) migrateCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy all data to the storage configured in another config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dstConf, err := config.LoadFile(target)
			if err != nil {
				return err
			}
			dst, err := config.LoadStorageBackends(dstConf.Storage)
			if err != nil {
				return err
			}
			defer func() {
				if err := dst.Close(); err != nil {
					log.WithError(err).Error("could not close target storage")
				}
			}()
			log.WithFields(
				log.Fields{
					"from": a.conf.Storage.Driver,
					"to":   dstConf.Storage.Driver,
				},
			).Info("migrating storage")
			if err = storage.Migrate(a.backs.KV, dst.KV); err != nil {
				return err
			}
			_, err = fmt.Fprintf(
				cmd.OutOrStdout(), "Migrated data from %s to %s storage\n", a.conf.Storage.Driver,
				dstConf.Storage.Driver,
			)
			return err
		},
	}
	cmd.Flags().StringVar(&target, "to", "", "config file of the target storage")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
