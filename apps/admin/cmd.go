package main

import (
	"database/sql"
	"errors"
	"fmt"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db *sql.DB
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|up-by-one|up-to VERSION|down|down-to VERSION|redo|reset|status|version - run migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
