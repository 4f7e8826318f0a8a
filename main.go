package main

import "github.com/Pouria-007/RF-Spectrum-Observatory/cmd"

func main() {
	cmd.Execute()
}
