package main

import "github.com/sergev/zoetrope/cmd"

func main() {
	cmd.Execute()
}
