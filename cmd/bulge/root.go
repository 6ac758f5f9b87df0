package bulge

import (
	"embed"
	"io/fs"
	"os"

	"github.com/arthur-debert/bulge/internal/version"
	"github.com/arthur-debert/bulge/pkg/cobrax/topics"
	"github.com/arthur-debert/bulge/pkg/commands"
	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/privilege"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/arthur-debert/bulge/pkg/ui"
	"github.com/arthur-debert/bulge/pkg/ui/confirmations"
	"github.com/arthur-debert/bulge/pkg/ui/styles"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//go:embed topics
var topicFiles embed.FS

// globalFlags holds the persistent flags shared by every command
type globalFlags struct {
	verbosity  int
	root       string
	configPath string
	noConfirm  bool

	// escalator is nil in production, which uses privilege.Default
	escalator *privilege.Escalator
}

// environment builds the command environment from the flags. Colour is
// decided here since it depends on the config.
func (g *globalFlags) environment(cmd *cobra.Command) (*commands.Environment, error) {
	var dialog types.ConfirmationDialog = confirmations.NewConsoleDialog(cmd.InOrStdin(), cmd.OutOrStdout())
	if g.noConfirm {
		dialog = types.AlwaysConfirm
	}

	env, err := commands.NewEnvironment(commands.Options{
		Root:       g.root,
		ConfigPath: g.configPath,
		Dialog:     dialog,
		Out:        cmd.OutOrStdout(),
	})
	if err != nil {
		return nil, err
	}

	colour := true
	if cfg, err := env.Config(); err == nil {
		colour = cfg.Colour
	}
	f, isFile := cmd.OutOrStdout().(*os.File)
	styles.SetColour(isFile && ui.DetectColour(f, colour))
	return env, nil
}

// mutation builds the environment for a command that changes the system
func (g *globalFlags) mutation(cmd *cobra.Command) (*commands.Environment, error) {
	env, err := g.environment(cmd)
	if err != nil {
		return nil, err
	}
	if err := env.PrepareMutation(g.escalator); err != nil {
		return nil, err
	}
	return env, nil
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&globalFlags{})
}

func newRootCmd(flags *globalFlags) *cobra.Command {
	initTemplateFormatting()

	rootCmd := &cobra.Command{
		Use:     "bulge",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.Options{Verbosity: flags.verbosity, Console: cmd.ErrOrStderr()})
			logging.LogCommand(cmd.Name(), args)
			log.Debug().Str("command", cmd.Name()).Str("root", flags.root).Msg("Command started")
		},
		// Unknown commands land here and print help
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				log.Debug().Strs("args", args).Msg("Unknown command")
			}
			return cmd.Help()
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&flags.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&flags.root, "root", "", MsgFlagRoot)
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().BoolVar(&flags.noConfirm, "noconfirm", false, MsgFlagNoConfirm)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "query", Title: "QUERIES:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newSyncCmd(flags))
	rootCmd.AddCommand(newUpgradeCmd(flags))
	rootCmd.AddCommand(newInstallCmd(flags))
	rootCmd.AddCommand(newRemoveCmd(flags))
	rootCmd.AddCommand(newInfoCmd(flags))
	rootCmd.AddCommand(newSearchCmd(flags))
	rootCmd.AddCommand(newListCmd(flags))
	rootCmd.AddCommand(newSetupCmd(flags))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	helpTopics, err := fs.Sub(topicFiles, "topics")
	if err == nil {
		err = topics.InitializeWithOptions(rootCmd, helpTopics, topics.Options{
			Renderer: topics.NewGlamourRenderer(),
		})
	}
	if err != nil {
		log.Warn().Err(err).Msg("Help topics unavailable")
	}

	return rootCmd
}

// requireArgs fails with INVALID_INPUT when fewer than n arguments are given
func requireArgs(n int, msg string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return errors.New(errors.ErrInvalidInput, msg).
				WithDetail("usage", cmd.UseLine())
		}
		return nil
	}
}

// exactArgs fails with INVALID_INPUT unless exactly n arguments are given
func exactArgs(n int, msg string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.New(errors.ErrInvalidInput, msg).
				WithDetail("usage", cmd.UseLine())
		}
		return nil
	}
}
