package main

import "github.com/mkalenga/unigest/cmd"

func main() {
	cmd.Execute()
}
