package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/roster/internal/config"
	"github.com/agenthands/roster/internal/core"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/logging"
	"github.com/agenthands/roster/internal/output"
	"github.com/agenthands/roster/internal/store"
)

// app holds what a subcommand needs once the root pre-run has loaded
// config and opened the store.
type app struct {
	cfg    *config.Config
	store  store.Store
	engine *core.Engine
	format output.Format
	out    io.Writer
}

func (a *app) print(table output.Data, raw any) error {
	if a.format == output.FormatTable {
		return output.NewFormatter(a.format).Format(a.out, table)
	}
	return output.NewFormatter(a.format).Format(a.out, raw)
}

type rootFlags struct {
	config  string
	format  string
	backend string
}

// newRootCommand builds the command tree around a fresh app. The app's
// store is opened by the pre-run hook; callers close it with execute.
func newRootCommand(out, errOut io.Writer) (*cobra.Command, *app) {
	flags := &rootFlags{}
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "rosterctl",
		Short: "Find and resolve duplicate organizations and contacts",
		Long: `rosterctl lists likely duplicate organizations and contacts, groups
them into clusters, records pairs an operator has judged distinct, and merges
confirmed duplicates while moving their dependent records.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context(), flags)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&flags.config, "config", "", "config file (default is $CONFIG_PATH or config/config.toml)")
	root.PersistentFlags().StringVarP(&flags.format, "format", "o", "", "output format: table, json or yaml (default table on a terminal, json otherwise)")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "override store.backend: sqlite, memgraph or memory")

	root.AddCommand(
		newCandidatesCommand(a),
		newClustersCommand(a),
		newDependentsCommand(a),
		newDismissCommand(a),
		newDismissalsCommand(a),
		newMergeCommand(a),
		newSeedCommand(a),
	)
	return root, a
}

// close releases the store opened by setup, if any.
func (a *app) close(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.Close(ctx)
}

// execute runs root and then closes the store whether or not the command
// failed. Cobra skips post-run hooks after an error, so this cannot live in
// one.
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	err := root.ExecuteContext(ctx)
	if cerr := a.close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (a *app) setup(ctx context.Context, flags *rootFlags) error {
	format, err := output.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	a.format = output.DetectFormat(string(format))

	path := flags.config
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/config.toml"
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if flags.backend != "" {
		cfg.Store.Backend = flags.backend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.Configure(cfg.Log.Level, cfg.Log.Format)

	opts, err := core.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.store = s
	a.engine = core.NewEngine(s, opts)
	return nil
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root, a := newRootCommand(os.Stdout, os.Stderr)
	if err := execute(ctx, root, a); err != nil {
		os.Exit(1)
	}
}

// parseKind accepts singular, plural and short names of the deduplicated
// kinds.
func parseKind(s string) (model.Kind, error) {
	switch strings.ToLower(s) {
	case "organization", "organizations", "org", "orgs":
		return model.KindOrganization, nil
	case "contact", "contacts":
		return model.KindContact, nil
	}
	return "", fmt.Errorf("unknown kind %q: must be organization or contact", s)
}
