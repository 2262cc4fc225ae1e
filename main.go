package main

import "github.com/ihavespoons/quarry/cmd"

func main() {
	cmd.Execute()
}
