package main

import (
	"mackay-backend/cmd/registrar-cli/commands"
	"mackay-backend/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
