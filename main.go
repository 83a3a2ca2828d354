package main

import "github.com/jmehdipour/crmbeat/cmd"

func main() {
	cmd.Execute()
}
