package main

import (
	"os"

	"hdb-resale/cli"
	"hdb-resale/utils"
)

func main() {
	if err := cli.Execute(); err != nil {
		utils.NewLogger().Error("%v", err)
		os.Exit(1)
	}
}
