package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `ride-dispatch: booking lifecycle and dispatch backend

Usage:
  dispatch [flags]

Flags:
  -config-path string   path to the config yaml file (default "config.yaml")
  -help                 show this message

Every config value can also be provided via environment variables,
see config/config.go for the full list.
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
