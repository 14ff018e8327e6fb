package root

import (
	accesscmd "github.com/benchline/lims-core/apps/cli/cmd/access"
	"github.com/benchline/lims-core/apps/cli/cmd/bootstrap"
	namescmd "github.com/benchline/lims-core/apps/cli/cmd/names"
	resultscmd "github.com/benchline/lims-core/apps/cli/cmd/results"
	unitscmd "github.com/benchline/lims-core/apps/cli/cmd/units"
)

func init() {
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(unitscmd.Command())
	Root().AddCommand(namescmd.Command())
	Root().AddCommand(accesscmd.Command())
	Root().AddCommand(resultscmd.Command())
}
