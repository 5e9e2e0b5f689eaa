package main

import "offercube/cmd"

func main() {
	cmd.Execute()
}
