package main

import "github.com/kicksaw-consulting/integration-deployer/cmd/integration-bootstrapper/cmd"

func main() {
	cmd.Execute()
}
