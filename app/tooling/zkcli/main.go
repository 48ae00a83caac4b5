// This program performs operation tasks against the zkDpos node.
package main

import (
	"github.com/qingah/zkdpos/app/tooling/zkcli/cmd"
)

func main() {
	cmd.Execute()
}
