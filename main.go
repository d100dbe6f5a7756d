package main

import "github.com/chriserin/vero/cmd"

func main() {
	cmd.Execute()
}
