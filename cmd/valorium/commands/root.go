package commands

import (
	"github.com/spf13/cobra"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/config"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for Valorium
var RootCmd = &cobra.Command{
	Use:              "valorium",
	Short:            "valorium consensus",
	TraverseChildren: true,
}
