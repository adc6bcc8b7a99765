package main

import "github.com/carthage-creances/gardien/cmd"

func main() {
	cmd.Execute()
}
