package main

import "github.com/Manu343726/armv4t/cmd"

func main() {
	cmd.Execute()
}
