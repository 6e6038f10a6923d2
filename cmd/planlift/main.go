package main

import "github.com/planlift/planlift/cmd/planlift/cmd"

func main() {
	cmd.Execute()
}
