package main

import "github.com/kicksaw-consulting/integration-deployer/cmd/integration-packager/cmd"

func main() {
	cmd.Execute()
}
