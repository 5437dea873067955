package main

import (
	"CloudDJ/cmd"
)

func main() {
	cmd.Execute()
}
