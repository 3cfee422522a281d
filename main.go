package main

import "presence-sync/cmd"

func main() {
	cmd.Execute()
}
