package main

import "github.com/coreman2200/ledmatrix/cmd/ledmatrix/cmd"

func main() {
	cmd.Execute()
}
