package main

import "github.com/llehouerou/trackvault/internal/cli"

func main() {
	cli.Execute()
}
