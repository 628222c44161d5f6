// cmd/brief/main.go
//
// This is the entry point for the brief questionnaire.
// When you run `brief` from any directory, that directory becomes the
// project: answers, logs and exports live under its .brief folder.
//
// Flow:
// 1. Open the session (config, storage, logs) and resume saved answers
// 2. Run the TUI until the user quits
// 3. Flush pending drafts on the way out

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/brief/internal/session"
	"github.com/kingrea/brief/internal/tui"
)

func main() {
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
	}
	project, err := filepath.Abs(project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving project dir: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	inbox := tui.NewInbox()
	sess, err := session.Open(ctx, project, session.WithNotifier(inbox.Push))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening project: %v\n", err)
		os.Exit(1)
	}

	app, err := tui.NewApp(sess, tui.WithInbox(inbox), tui.WithContext(ctx))
	if err != nil {
		sess.Close(ctx)
		fmt.Fprintf(os.Stderr, "Error starting TUI: %v\n", err)
		os.Exit(1)
	}

	// tea.NewProgram creates a new bubbletea application
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)

	// Run blocks until the user quits
	_, runErr := p.Run()
	if err := sess.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving drafts: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", runErr)
		os.Exit(1)
	}
}
