package main

import "github.com/naka-gawa/asreview-stats/cmd"

func main() {
	cmd.Execute()
}
