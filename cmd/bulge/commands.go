package bulge

import (
	"fmt"

	"github.com/arthur-debert/bulge/internal/version"
	"github.com/arthur-debert/bulge/pkg/commands"
	"github.com/arthur-debert/bulge/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSyncCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   MsgSyncShort,
		Long:    MsgSyncLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.mutation(cmd)
			if err != nil {
				return err
			}
			report, err := commands.Sync(cmd.Context(), env)
			if err != nil {
				return err
			}
			if failed := report.Failed(); len(failed) > 0 {
				log.Warn().Strs("sources", failed).Msg("Some repositories kept their previous database")
			}
			return nil
		},
	}
}

func newUpgradeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "upgrade",
		Aliases: []string{"u", "up"},
		Short:   MsgUpgradeShort,
		Long:    MsgUpgradeLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.mutation(cmd)
			if err != nil {
				return err
			}
			result, err := commands.Upgrade(cmd.Context(), env)
			if err != nil {
				return err
			}

			rows := make([]ui.UpgradeRow, 0, len(result.Upgrades))
			for _, u := range result.Upgrades {
				rows = append(rows, ui.UpgradeRow{
					Name:      u.Name,
					Installed: ui.VersionString(u.InstalledEpoch, u.InstalledVersion),
					Available: ui.VersionString(u.Available.Entry.Epoch, u.Available.Entry.Version),
					Source:    u.Available.Source.Name,
				})
			}
			return ui.NewRenderer(cmd.OutOrStdout(), ui.FormatText).RenderUpgrades(rows)
		},
	}
}

func newInstallCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "install <package|archive>...",
		Aliases: []string{"i"},
		Short:   MsgInstallShort,
		Long:    MsgInstallLong,
		Example: MsgInstallExample,
		GroupID: "core",
		Args:    requireArgs(1, MsgErrInstallArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.mutation(cmd)
			if err != nil {
				return err
			}
			_, err = commands.Install(cmd.Context(), env, args)
			return err
		},
	}
}

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:               "remove <package>...",
		Aliases:           []string{"r"},
		Short:             MsgRemoveShort,
		Long:              MsgRemoveLong,
		GroupID:           "core",
		Args:              requireArgs(1, MsgErrRemoveArgs),
		ValidArgsFunction: installedCompletion(flags),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.mutation(cmd)
			if err != nil {
				return err
			}
			return commands.Remove(cmd.Context(), env, args)
		},
	}
}

func newInfoCmd(flags *globalFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "info <package>",
		Short:             MsgInfoShort,
		GroupID:           "query",
		Args:              exactArgs(1, MsgErrInfoArgs),
		ValidArgsFunction: installedCompletion(flags),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ui.ParseFormat(output)
			if err != nil {
				return err
			}
			env, err := flags.environment(cmd)
			if err != nil {
				return err
			}
			result, err := commands.Info(env, args[0])
			if err != nil {
				return err
			}
			return ui.NewRenderer(cmd.OutOrStdout(), format).RenderPackage(infoView(result))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", MsgFlagOutput)
	return cmd
}

// infoView merges the installed record and the indexed entry of a package
func infoView(result *commands.InfoResult) ui.PackageView {
	var view ui.PackageView
	if result.Installed != nil {
		view = ui.ViewFromRecord(*result.Installed)
	}
	if m := result.Available; m != nil {
		if result.Installed == nil {
			view.Name = m.Entry.Name
			view.Version = m.Entry.Version
			view.Epoch = m.Entry.Epoch
			view.Source = m.Source.Name
		} else if m.Entry.Version != view.Version || m.Entry.Epoch != view.Epoch {
			view.Available = ui.VersionString(m.Entry.Epoch, m.Entry.Version)
		}
		view.Description = m.Entry.Description
	}
	return view
}

func newSearchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "search <term>...",
		Short:   MsgSearchShort,
		GroupID: "query",
		Args:    requireArgs(1, MsgErrSearchArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.environment(cmd)
			if err != nil {
				return err
			}
			results, err := commands.Search(env, args)
			if err != nil {
				return err
			}

			rows := make([]ui.SearchRow, 0, len(results))
			for _, r := range results {
				rows = append(rows, ui.SearchRow{
					Name:        r.Entry.Name,
					Version:     ui.VersionString(r.Entry.Epoch, r.Entry.Version),
					Source:      r.Source.Name,
					Description: r.Entry.Description,
					Installed:   r.InstalledVersion,
				})
			}
			return ui.NewRenderer(cmd.OutOrStdout(), ui.FormatText).RenderSearch(rows)
		},
	}
}

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		GroupID: "query",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.environment(cmd)
			if err != nil {
				return err
			}
			installed, err := commands.List(env)
			if err != nil {
				return err
			}
			return ui.NewRenderer(cmd.OutOrStdout(), ui.FormatText).RenderInstalled(installed)
		},
	}
}

func newSetupCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "setup",
		Short:   MsgSetupShort,
		Long:    MsgSetupLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := flags.mutation(cmd)
			if err != nil {
				return err
			}
			result, err := commands.Setup(env)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Directories) == 0 && len(result.Files) == 0 {
				_, _ = fmt.Fprintln(out, MsgSetupNothing)
				return nil
			}
			for _, dir := range result.Directories {
				_, _ = fmt.Fprintf(out, MsgSetupCreatedDir, dir)
			}
			for _, file := range result.Files {
				_, _ = fmt.Fprintf(out, MsgSetupCreatedFile, file)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return GenCompletion(cmd.Root(), args[0], cmd.OutOrStdout())
		},
	}
}

// installedCompletion completes the names of installed packages
func installedCompletion(flags *globalFlags) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		env, err := commands.NewEnvironment(commands.Options{Root: flags.root, ConfigPath: flags.configPath})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		installed, err := commands.List(env)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		given := map[string]bool{}
		for _, a := range args {
			given[a] = true
		}
		var names []string
		for _, rec := range installed {
			if !given[rec.Name] {
				names = append(names, rec.Name)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}
