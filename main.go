package main

import "wheels/cmd"

func main() {
	cmd.Execute()
}
