package main

import "print-area-pricing/cmd"

func main() {
	cmd.Execute()
}
