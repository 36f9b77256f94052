package main

import "github.com/theirongolddev/dolla/cmd"

func main() {
	cmd.Execute()
}
