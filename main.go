package main

import "github.com/complyscan/complyscan/cmd/complyscan"

func main() { complyscan.Execute() }
