package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	devEnabled() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	ShowProfile(ctx context.Context) error
	Rename(ctx context.Context, args []string) error
	Avatar(ctx context.Context, args []string) error
	Dose(ctx context.Context, args []string) error
	Doses(ctx context.Context, args []string) error
	Onboarded(ctx context.Context) error
	Routes(ctx context.Context) error
	Diag(ctx context.Context) error
	Reset(ctx context.Context) error
}

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit"/"quit".
//
//	Not logged in:  help, register, login, exit
//	Logged in:      help, whoami, profile, rename, avatar, dose, doses,
//	                onboarded, logout, exit
//	Developer mode: routes, diag, reset
//
// Handler errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("dk%s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if needsLogin(cmd) && !a.isLoggedIn() {
			printlnFn("Please log in first")
			continue
		}
		if isDevCommand(cmd) && !a.devEnabled() {
			printlnFn("Unknown command:", cmd)
			continue
		}

		var err error
		switch cmd {
		case "help":
			printHelp(a)
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "profile":
			err = a.ShowProfile(ctx)
		case "rename":
			err = a.Rename(ctx, args)
		case "avatar":
			err = a.Avatar(ctx, args)
		case "dose":
			err = a.Dose(ctx, args)
		case "doses":
			err = a.Doses(ctx, args)
		case "onboarded":
			err = a.Onboarded(ctx)
		case "routes":
			err = a.Routes(ctx)
		case "diag":
			err = a.Diag(ctx)
		case "reset":
			err = a.Reset(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

func needsLogin(cmd string) bool {
	switch cmd {
	case "logout", "whoami", "profile", "rename", "avatar", "dose", "doses", "onboarded":
		return true
	}
	return false
}

func isDevCommand(cmd string) bool {
	switch cmd {
	case "routes", "diag", "reset":
		return true
	}
	return false
}

func printHelp(a execIface) {
	if a.isLoggedIn() {
		printlnFn("Available commands: whoami, profile, rename <name>, avatar <file>, dose <type>, doses [n], onboarded, logout, exit")
	} else {
		printlnFn("Available commands: register, login, exit")
	}
	if a.devEnabled() {
		printlnFn("Developer commands: routes, diag, reset")
	}
}
