package main

import "github.com/oshokin/rpmstamp/cmd/rpmstamp/cmd"

func main() {
	cmd.Execute()
}
