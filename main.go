package main

import (
	"Sc2Mp3/cmd"
)

func main() {
	cmd.Execute()
}
