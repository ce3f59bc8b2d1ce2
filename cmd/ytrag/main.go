package main

import (
	"context"
	"os"

	"jamesfarrell.me/youtube-rag/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
