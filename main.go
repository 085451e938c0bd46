package main

import "github.com/jfmyers9/nowplaying/cmd"

func main() {
	cmd.Execute()
}
