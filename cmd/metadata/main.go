package main

import "github.com/mis-esta/OpenMetadata/internal/cmd"

func main() {
	cmd.Execute()
}
