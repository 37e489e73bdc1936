package main

import "github.com/metal-toolbox/xpuctl/cmd"

func main() {
	cmd.Execute()
}
