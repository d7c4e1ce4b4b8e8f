package main

import "example.com/attendance/internal/cli"

func main() {
	cli.Execute()
}
