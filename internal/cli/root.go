package cli

import (
	"os"

	"github.com/amterp/ra"
)

// CommandContext holds parsed values and used flags for all commands.
type CommandContext struct {
	// Global flags
	NonInteractive *bool
	ConfigPath     *string

	// serve command
	ServeUsed    *bool
	ServePort    *int
	ServeDataDir *string

	// board command
	BoardUsed *bool

	// board create
	BoardCreateUsed *bool
	BoardCreateUID  *string
	BoardCreateName *string

	// board list
	BoardListUsed *bool

	// board archive
	BoardArchiveUsed  *bool
	BoardArchiveUID   *string
	BoardArchiveForce *bool

	// version command
	VersionUsed *bool
}

// Run is the main entry point for the CLI.
func Run() {
	ctx := &CommandContext{}

	cmd := ra.NewCmd("pegboard")
	cmd.SetDescription("Multi-board kanban server")

	ctx.NonInteractive, _ = ra.NewBool("non-interactive").
		SetShort("I").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Fail instead of prompting for missing input").
		Register(cmd, ra.WithGlobal(true))

	ctx.ConfigPath, _ = ra.NewString("config").
		SetShort("c").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Path to a TOML config file").
		Register(cmd, ra.WithGlobal(true))

	registerServe(cmd, ctx)
	registerBoard(cmd, ctx)
	registerVersion(cmd, ctx)

	cmd.ParseOrExit(os.Args[1:])

	executeCommand(ctx)
}

func executeCommand(ctx *CommandContext) {
	switch {
	case *ctx.ServeUsed:
		runServe(*ctx.ConfigPath, *ctx.ServePort, *ctx.ServeDataDir)

	case *ctx.BoardCreateUsed:
		runBoardCreate(*ctx.ConfigPath, *ctx.BoardCreateUID, *ctx.BoardCreateName)

	case *ctx.BoardListUsed:
		runBoardList(*ctx.ConfigPath)

	case *ctx.BoardArchiveUsed:
		runBoardArchive(*ctx.ConfigPath, *ctx.BoardArchiveUID, *ctx.BoardArchiveForce, *ctx.NonInteractive)

	case *ctx.VersionUsed:
		runVersion()
	}
}
