package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

//RootCmd is the root command for tangled
var RootCmd = &cobra.Command{
	Use:              "tangled",
	Short:            "tangle gossip node",
	TraverseChildren: true,
}
