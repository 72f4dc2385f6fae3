package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mkdir-username/etlon-coffee/cmd/bot"
	"github.com/mkdir-username/etlon-coffee/cmd/notificationsubscriber"
	"github.com/mkdir-username/etlon-coffee/cmd/seed"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Extract mode from arguments
	var mode string
	var serviceArgs []string

	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		if strings.HasPrefix(arg, "--mode=") {
			mode = strings.TrimPrefix(arg, "--mode=")
		} else if arg == "--mode" && i+1 < len(os.Args) {
			mode = os.Args[i+1]
			i++ // skip the next argument
		} else {
			serviceArgs = append(serviceArgs, arg)
		}
	}

	if mode == "" {
		printUsage()
		os.Exit(1)
	}

	// Set the service-specific arguments
	os.Args = append([]string{os.Args[0]}, serviceArgs...)

	switch mode {
	case "bot":
		bot.Main()
	case "notification-subscriber":
		notificationsubscriber.Main()
	case "seed":
		seed.Main()
	default:
		fmt.Printf("Invalid mode: %s\n", mode)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: etlon-coffee --mode=<service-mode> [service-specific-flags]")
	fmt.Println("Available modes:")
	fmt.Println("  bot --config-path=config/config.yaml")
	fmt.Println("  notification-subscriber --config-path=config/config.yaml")
	fmt.Println("  seed --config-path=config/config.yaml --menu=data/menu.json --modifiers=data/modifiers.json")
}
