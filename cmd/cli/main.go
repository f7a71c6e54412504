package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/reportconsole/internal/cli/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	app := commands.NewApp()
	err := commands.Execute(ctx, app, commands.NewRootCommand(app))
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
