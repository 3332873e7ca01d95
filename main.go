package main

import "github.com/clauselens/clauselens/cmd"

func main() {
	cmd.Execute()
}
