package main

import (
	"context"
	"ticketwatch/cmd/ticketwatch/commands"
	"ticketwatch/internal/components/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()
	commands.ExecuteContext(ctx)
}
