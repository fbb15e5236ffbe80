package main

import "github.com/cybershikshax/shiksha-cli/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
