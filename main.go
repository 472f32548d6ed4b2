package main

import "github.com/chukul/daintree/cmd"

func main() {
	cmd.Execute()
}
