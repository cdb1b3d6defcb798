package main

import (
	"context"

	"diyanet/cmd/diyanet-cli/commands"
	"diyanet/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "diyanet-cli")
	commands.ExecuteContext(context.Background())
}
