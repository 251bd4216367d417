package main

import "moviematch/cmd"

func main() {
	cmd.Execute()
}
