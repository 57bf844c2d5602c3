package cli

import (
	"fmt"

	"github.com/amterp/ra"

	"github.com/pegboard-io/pegboard/internal/version"
)

func registerVersion(parent *ra.Cmd, ctx *CommandContext) {
	cmd := ra.NewCmd("version")
	cmd.SetDescription("Print the version")

	ctx.VersionUsed, _ = parent.RegisterCmd(cmd)
}

func runVersion() {
	fmt.Println(version.Version)
}
