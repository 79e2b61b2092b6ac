package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/credhouse/credhouse/cmd/credhouse/config"
	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/storage/model"
	"github.com/credhouse/credhouse/verification"
)

// cli holds what the commands share once the config is loaded
type cli struct {
	configFile string
	verbose    bool

	conf     config.Config
	backs    model.Backends
	engine   *lifecycle.Engine
	protocol verification.Protocol
}

func newRootCmd(a *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "credctl",
		Short:         "credctl manages credentials in a credhouse",
		Long:          "credctl registers users, requests, issues, shares and verifies credentials in a credhouse",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "the config file to use")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(
		a.registerCmd(),
		a.signInCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.requestCmd(),
		a.requestsCmd(),
		a.approveCmd(),
		a.rejectCmd(),
		a.mintCmd(),
		a.credentialsCmd(),
		a.verifyCmd(),
		a.urlCmd(),
		a.shareCmd(),
		a.qrCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.migrateCmd(),
	)
	return rootCmd
}

func (a *cli) load() error {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
	if a.verbose {
		log.SetLevel(log.DebugLevel)
	}
	conf, err := config.LoadFile(a.configFile)
	if err != nil {
		return err
	}
	a.conf = conf
	conf.LogDebug()
	if a.backs, err = config.LoadStorageBackends(conf.Storage); err != nil {
		return err
	}
	a.engine = lifecycle.NewEngine(a.backs, conf.Issuance.MintDelay.Duration())
	a.protocol = verification.NewProtocol(conf.Server.PublicURL)
	return nil
}

// session returns a context carrying the signed in user, if any
func (a *cli) session(cmd *cobra.Command) context.Context {
	return a.engine.Session(cmd.Context())
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return errors.WithStack(err)
}

// run executes the command line args and closes the storage afterwards,
// also when the command failed
func run(args []string, out io.Writer, in io.Reader) error {
	a := &cli{}
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetIn(in)
	err := rootCmd.Execute()
	if closeErr := a.backs.Close(); closeErr != nil {
		log.WithError(closeErr).Error("could not close storage")
	}
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stdin); err != nil {
		log.Fatal(err)
	}
}
