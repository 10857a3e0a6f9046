package commands

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"signalstore/internal/app"
	"signalstore/internal/config"
)

// passwordEnv is read when -p is not given.
const passwordEnv = "SIGNALSTORE_PASSWORD"

type cli struct {
	configPath   string
	home         string
	identity     string
	password     string
	directoryURL string
	logLevel     string

	app *app.App
}

// Execute runs the CLI with args, writing command output to out, and closes
// the store opened for the command.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		err = errors.Join(err, c.app.Close())
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "signalstore",
		Short:         "Encrypted per-identity store for protocol state",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return c.open(cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	f := root.PersistentFlags()
	f.StringVar(&c.configPath, "config", "", "YAML config file")
	f.StringVar(&c.home, "home", "", "store root directory (default ~/.signalstore)")
	f.StringVar(&c.identity, "identity", "", "identity whose store is opened")
	f.StringVarP(&c.password, "password", "p", "", "store password (or $"+passwordEnv+")")
	f.StringVar(&c.directoryURL, "directory", "", "directory base URL (e.g. http://127.0.0.1:8080)")
	f.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		getCmd(c), setCmd(c), rmCmd(c), keysCmd(c),
		rmSessionsCmd(c), initCmd(c), fingerprintCmd(c),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("identity") {
		overrides["identity"] = c.identity
	}
	if flags.Changed("home") {
		overrides["store.root"] = c.home
	} else if os.Getenv("SIGNALSTORE_STORE_ROOT") == "" && c.configPath == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		overrides["store.root"] = filepath.Join(dir, ".signalstore")
	}
	if flags.Changed("directory") {
		overrides["directory.url"] = c.directoryURL
	}
	if flags.Changed("log-level") {
		overrides["log.level"] = c.logLevel
	}

	opts := []config.Option{config.WithOverrides(overrides)}
	if c.configPath != "" {
		opts = append(opts, config.WithConfigFile(c.configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	password := c.password
	if password == "" {
		password = os.Getenv(passwordEnv)
	}

	a, err := app.Open(cmd.Context(), cfg, app.Options{Password: password})
	if err != nil {
		return err
	}
	c.app = a
	return nil
}
