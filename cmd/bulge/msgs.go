package bulge

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "A binary package manager"
	MsgSyncShort       = "Synchronize repository databases"
	MsgUpgradeShort    = "Synchronize and list available upgrades"
	MsgInstallShort    = "Install packages by name or from archives"
	MsgRemoveShort     = "Remove installed packages"
	MsgInfoShort       = "Show information about a package"
	MsgSearchShort     = "Search the repository databases"
	MsgListShort       = "List installed packages"
	MsgSetupShort      = "Create the default layout and configuration"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgSyncFailed       = "Could not synchronize: %s\n"
	MsgSetupNothing     = "Everything is already in place."
	MsgSetupCreatedDir  = "Created directory %s\n"
	MsgSetupCreatedFile = "Created file %s\n"
	MsgVersionFormat    = "bulge version %s\n  commit: %s\n  built:  %s\n"

	// Argument errors
	MsgErrInstallArgs = "install requires at least one package or archive"
	MsgErrRemoveArgs  = "remove requires at least one package"
	MsgErrSearchArgs  = "search requires at least one term"
	MsgErrInfoArgs    = "info requires exactly one package"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagRoot      = "Operate on the tree below this directory (default $BULGE_ROOT or /)"
	MsgFlagConfig    = "Path to the config file (default <root>/etc/bulge/config.json)"
	MsgFlagNoConfirm = "Answer yes to every confirmation"
	MsgFlagOutput    = "Output format: text, json, yaml or toml"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/install-long.txt
	msgInstallLongRaw string
	MsgInstallLong    = strings.TrimSpace(msgInstallLongRaw)

	//go:embed msgs/install-example.txt
	msgInstallExampleRaw string
	MsgInstallExample    = strings.TrimRight(msgInstallExampleRaw, "\n")

	//go:embed msgs/sync-long.txt
	msgSyncLongRaw string
	MsgSyncLong    = strings.TrimSpace(msgSyncLongRaw)

	//go:embed msgs/upgrade-long.txt
	msgUpgradeLongRaw string
	MsgUpgradeLong    = strings.TrimSpace(msgUpgradeLongRaw)

	//go:embed msgs/remove-long.txt
	msgRemoveLongRaw string
	MsgRemoveLong    = strings.TrimSpace(msgRemoveLongRaw)

	//go:embed msgs/setup-long.txt
	msgSetupLongRaw string
	MsgSetupLong    = strings.TrimSpace(msgSetupLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
