// cmd/briefctl/main.go
//
// Non-interactive companion to brief: inspect progress, submit stage
// answers from files, export the document, reset the questionnaire and
// query equipment suggestions.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/brief/internal/brief"
	"github.com/kingrea/brief/internal/config"
	"github.com/kingrea/brief/internal/export"
	"github.com/kingrea/brief/internal/session"
	"github.com/kingrea/brief/internal/suggest"
)

const usage = `usage: briefctl [-project dir] <command> [flags]

commands:
  init                                   create .brief with a default config
  status                                 list stages and the current position
  submit -stage id [-file path|-]        submit YAML or JSON answers for the active stage
  export [-format xlsx|text|json] [-out path]
  reset -yes                             erase every saved answer
  suggest -name room [-type t] [-selected item ...]
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("briefctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	projectDir := global.String("project", "", "path to the project directory (defaults to cwd)")
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	if err := global.Parse(args); err != nil {
		return 2
	}
	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	command, cmdArgs := rest[0], rest[1:]

	if command == "suggest" {
		return report(stderr, runSuggest(cmdArgs, stdout, stderr, *projectDir))
	}

	project, err := resolveProject(*projectDir)
	if err != nil {
		return report(stderr, err)
	}
	if command == "init" {
		if err := config.InitBriefDir(project); err != nil {
			return report(stderr, err)
		}
		fmt.Fprintf(stdout, "Initialized %s\n", filepath.Join(project, config.BriefDir))
		return 0
	}

	var handler func(context.Context, *session.Session, []string, io.Reader, io.Writer, io.Writer) error
	switch command {
	case "status":
		handler = runStatus
	case "submit":
		handler = runSubmit
	case "export":
		handler = runExport
	case "reset":
		handler = runReset
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", command)
		fmt.Fprint(stderr, usage)
		return 2
	}

	sess, err := session.Open(ctx, project)
	if err != nil {
		return report(stderr, err)
	}
	err = handler(ctx, sess, cmdArgs, stdin, stdout, stderr)
	if cerr := sess.Close(ctx); err == nil {
		err = cerr
	}
	return report(stderr, err)
}

func report(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, flag.ErrHelp) {
		return 2
	}
	fmt.Fprintf(stderr, "briefctl: %v\n", err)
	return 1
}

func resolveProject(dir string) (string, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	return abs, nil
}

func runStatus(ctx context.Context, sess *session.Session, args []string, _ io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	done, total := sess.Wizard.Progress()
	fmt.Fprintf(stdout, "Position: %s (%d/%d answered)\n", sess.Wizard.Position(), done, total)
	for i, st := range sess.Wizard.Status(ctx) {
		marker := " "
		if st.Active {
			marker = ">"
		}
		var flags []string
		if st.Submitted {
			flags = append(flags, "submitted")
		}
		if st.Draft {
			flags = append(flags, "draft")
		}
		if len(flags) == 0 {
			flags = append(flags, "empty")
		}
		fmt.Fprintf(stdout, "%s %d. %-14s %s [%s]\n", marker, i+1, st.Stage, st.Title, strings.Join(flags, ", "))
	}
	if stale := sess.Wizard.Record().StaleRoomRefs(); len(stale) > 0 {
		fmt.Fprintf(stdout, "Unresolved rooms: %s\n", strings.Join(stale, ", "))
	}
	return nil
}

func runSubmit(ctx context.Context, sess *session.Session, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	stageID := fs.String("stage", "", "stage identifier (defaults to the active stage)")
	file := fs.String("file", "-", "answers file, or - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	stage, ok := sess.Wizard.Current()
	if !ok {
		return errors.New("every stage is already answered; run reset to start over")
	}
	if *stageID != "" {
		parsed, err := brief.ParseStage(*stageID)
		if err != nil {
			return err
		}
		stage = parsed
	}
	var (
		data []byte
		err  error
	)
	if *file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(*file)
	}
	if err != nil {
		return fmt.Errorf("read answers: %w", err)
	}
	if _, err := sess.Wizard.SubmitRaw(ctx, stage, data); err != nil {
		var verr *brief.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				fmt.Fprintf(stderr, "  %s: %s (%s)\n", f.Field, f.Message, f.Code)
			}
		}
		return err
	}
	fmt.Fprintf(stdout, "%s submitted, now at %s\n", stage.Title(), sess.Wizard.Position())
	return nil
}

func runExport(_ context.Context, sess *session.Session, args []string, _ io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "", "xlsx, text or json (defaults to config)")
	out := fs.String("out", "", "output path (defaults to the export directory)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f := sess.Format
	if *format != "" {
		parsed, err := export.ParseFormat(*format)
		if err != nil {
			return err
		}
		f = parsed
	}
	if !sess.Wizard.IsComplete() {
		done, total := sess.Wizard.Progress()
		fmt.Fprintf(stderr, "warning: %d of %d stages answered; missing sections are left out\n", done, total)
	}
	path, err := sess.ExportAs(f, *out)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, path)
	return nil
}

func runReset(ctx context.Context, sess *session.Session, args []string, _ io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.Bool("yes", false, "confirm erasing every saved answer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("reset erases every answer; pass -yes to confirm")
	}
	if err := sess.Wizard.Restart(ctx); err != nil {
		return err
	}
	sess.Suggest.Clear()
	fmt.Fprintln(stdout, "All answers erased.")
	return nil
}

// runSuggest only needs the configured templates, so it loads config
// without opening storage.
func runSuggest(args []string, stdout, stderr io.Writer, projectDir string) error {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "room name")
	kind := fs.String("type", "", "room type: living, utility, wet or technical")
	selected := listFlag{}
	fs.Var(&selected, "selected", "item already chosen (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	roomType := brief.RoomType(strings.TrimSpace(*kind))
	if roomType != brief.RoomTypeNone && !validRoomType(roomType) {
		return fmt.Errorf("unknown room type %q", *kind)
	}

	var opts []suggest.Option
	if projectDir != "" {
		cfg, err := config.NewConfig(projectDir)
		if err != nil {
			return err
		}
		opts = append(opts, suggest.WithTemplates(cfg.SuggestionTemplates()))
	}
	idx := suggest.New(opts...)
	fmt.Fprintf(stdout, "Group: %s\n", suggest.Classify(*name, roomType))
	for _, tpl := range idx.Available(*name, roomType, selected) {
		fmt.Fprintf(stdout, "- %s (%s)\n", tpl.Name, tpl.Category)
	}
	return nil
}

func validRoomType(t brief.RoomType) bool {
	for _, candidate := range brief.RoomTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

type listFlag []string

func (l *listFlag) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ", ")
}

func (l *listFlag) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty value")
	}
	*l = append(*l, value)
	return nil
}
