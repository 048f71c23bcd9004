package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = func(args ...any) { fmt.Println(args...) }

func (a *App) getStatus() string {
	mode := "offline"
	if a.monitor.Current() {
		mode = "online"
	}
	return fmt.Sprintf("(%s %s)", mode, a.engine.Status())
}

// Root runs the REPL loop. The loop exits on scanner EOF or when the user
// types "exit" or "quit".
func (a *App) Root(ctx context.Context) {
	printlnFn("clinicsync intake CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("intake %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		if !a.dispatch(ctx, cmd, args) {
			return
		}
	}
}

// dispatch runs one command. Returns false when the REPL should exit.
// Errors from handlers are printed, never fatal.
func (a *App) dispatch(ctx context.Context, cmd string, args []string) bool {
	switch cmd {
	case "help":
		printlnFn("Available commands: add-patient, add-vitals, list, assess, upload, sync, status, mode, clear, exit")
	case "add-patient":
		a.addPatient(ctx)
	case "add-vitals":
		a.addVitals(ctx)
	case "list":
		a.list(ctx, args)
	case "assess":
		if len(args) == 0 {
			printlnFn("Usage: assess <patient-id>")
			return true
		}
		a.assess(ctx, args[0])
	case "upload":
		if len(args) < 2 {
			printlnFn("Usage: upload <patient-id> <file>")
			return true
		}
		a.upload(ctx, args[0], args[1])
	case "sync":
		a.engine.SyncAll(ctx)
	case "status":
		a.status(ctx)
	case "mode":
		if a.monitor.Current() {
			printlnFn("online")
		} else {
			printlnFn("offline")
		}
	case "clear":
		a.clear(ctx)
	case "exit", "quit":
		printlnFn("Bye!")
		return false
	default:
		printlnFn("Unknown command:", cmd)
	}
	return true
}
