package main

import "github.com/ridoystarlord/mzkit/cmd"

func main() {
	cmd.Execute()
}
