package main

import "github.com/exam-archive/backend/internal/cli"

// Version info (set during build)
var Version = "dev"

func main() {
	cli.Execute(Version)
}
