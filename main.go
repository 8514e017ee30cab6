package main

import "github.com/relloyd/snowmerge/cmd"

func main() {
	cmd.Execute()
}
