package main

import "github.com/frahmantamala/resolution-tracker/cmd"

func main() {
	cmd.Execute()
}
