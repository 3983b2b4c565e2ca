package main

import "github.com/vietdv277/awsfree/cmd"

func main() {
	cmd.Execute()
}
