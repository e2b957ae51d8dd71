package main

import "github.com/kicksaw-consulting/integration-deployer/cmd/integration-deployer/cmd"

func main() {
	cmd.Execute()
}
