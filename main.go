package main

import "github/chapool/go-txrelay/cmd"

func main() {
	cmd.Execute()
}
