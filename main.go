package main

import "placement-excluder/cmd"

func main() {
	cmd.Execute()
}
