package main

import "github.com/afepanou/payments/cmd"

func main() {
	cmd.Execute()
}
