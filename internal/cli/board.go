package cli

import (
	"errors"
	"fmt"

	"github.com/amterp/ra"

	"github.com/pegboard-io/pegboard/internal/prompt"
	"github.com/pegboard-io/pegboard/internal/util"
)

func registerBoard(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("board")
	cmd.SetDescription("Manage boards")

	// board create
	createCmd := ra.NewCmd("create")
	createCmd.SetDescription("Create a new board")

	ctx.BoardCreateUID, _ = ra.NewString("uid").
		SetOptional(true).
		SetUsage("Board uid (letters, digits, hyphens)").
		Register(createCmd)

	ctx.BoardCreateName, _ = ra.NewString("name").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Human-readable name to derive the uid from").
		Register(createCmd)

	ctx.BoardCreateUsed, _ = cmd.RegisterCmd(createCmd)

	// board list
	listCmd := ra.NewCmd("list")
	listCmd.SetDescription("List all boards")

	ctx.BoardListUsed, _ = cmd.RegisterCmd(listCmd)

	// board archive
	archiveCmd := ra.NewCmd("archive")
	archiveCmd.SetDescription("Archive a board's store file")

	ctx.BoardArchiveUID, _ = ra.NewString("uid").
		SetUsage("Board uid to archive").
		Register(archiveCmd)

	ctx.BoardArchiveForce, _ = ra.NewBool("force").
		SetShort("f").
		SetOptional(true).
		SetFlagOnly(true).
		SetUsage("Skip the confirmation prompt").
		Register(archiveCmd)

	ctx.BoardArchiveUsed, _ = cmd.RegisterCmd(archiveCmd)

	ctx.BoardUsed, _ = parent.RegisterCmd(cmd)
}

func runBoardCreate(configPath, uid, name string) {
	app, err := NewApp(configPath, "", true)
	if err != nil {
		Fatal(err)
	}
	defer app.Close()

	if uid == "" && name != "" {
		uid = util.Slug(name, 50)
	}

	st, err := app.Registry.Create(uid)
	if err != nil {
		Fatal(err)
	}

	fmt.Printf("Created board %q at %s\n", uid, st.Path())
}

func runBoardList(configPath string) {
	app, err := NewApp(configPath, "", true)
	if err != nil {
		Fatal(err)
	}
	defer app.Close()

	ids, err := app.Registry.List()
	if err != nil {
		Fatal(err)
	}

	if len(ids) == 0 {
		fmt.Println("No boards found")
		return
	}

	for _, id := range ids {
		fmt.Printf("%s\t%s\n", id, app.Registry.StorePath(id))
	}
}

func runBoardArchive(configPath, uid string, force, nonInteractive bool) {
	app, err := NewApp(configPath, "", !nonInteractive)
	if err != nil {
		Fatal(err)
	}
	defer app.Close()

	if !app.Registry.Exists(uid) {
		Fatal(fmt.Errorf("board not found: %s", uid))
	}

	if !force {
		ok, err := app.Prompter.Confirm(fmt.Sprintf("Archive board %q? Its store file will be moved aside.", uid), false)
		if err != nil {
			if errors.Is(err, prompt.ErrNonInteractive) {
				Fatal(fmt.Errorf("refusing to archive without confirmation; pass --force"))
			}
			Fatal(err)
		}
		if !ok {
			fmt.Println("Aborted")
			return
		}
	}

	archived, err := app.Registry.Archive(uid)
	if err != nil {
		Fatal(err)
	}

	fmt.Printf("Archived board %q to %s\n", uid, archived)
}
