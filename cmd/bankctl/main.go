package main

import (
	"github.com/azargarov/bankpool/cmd/bankctl/cmd"
)

func main() {
	cmd.Execute()
}
