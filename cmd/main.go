package main

import (
	"context"
	"os"

	"github.com/ajcoder25/bookverse/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
