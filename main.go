package main

import "oxywalk/cmd"

func main() {
	cmd.Execute()
}
