// File: cmd/select.go
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/viewlens/api/schemas"
	"github.com/xkilldash9x/viewlens/internal/catalog"
	"github.com/xkilldash9x/viewlens/internal/inspector"
)

const selectHelp = `commands:
  list                 show the current page
  hover <id>           move the pointer onto an element
  leave <id>           move the pointer off an element
  click <id>           select an element for confirmation
  tap <x> <y>          select whatever is drawn at canvas coordinates
  confirm              confirm the pending element
  cancel               drop the pending element
  hide [id]            hide the pending element, or the given one
  restore <id>|all     bring hidden elements back
  hidden               list hidden elements and when they return
  state <id>           print the interaction state of an element
  quit                 leave
`

func newSelectCmd() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "select <snapshot-file>",
		Short: "Pick an element interactively and print it once confirmed",
		Long: `Load a snapshot and read selection commands from stdin, one per line.
Every confirmed element is printed as a JSON object carrying its bounds, so the
caller can synthesize a tap at its center.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := readSnapshot(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			q, err := flags.query(cmd, cfg.Catalog())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s, _, err := newSession(cmd, inspector.WithOnConfirm(func(ce schemas.ConfirmedElement) {
				tap := ce.TapPoint()
				_ = writeJSON(out, struct {
					schemas.ConfirmedElement
					TapX float64 `json:"tapX"`
					TapY float64 `json:"tapY"`
				}{ce, tap.X, tap.Y})
			}))
			if err != nil {
				return err
			}
			defer s.Close()

			res := s.Load(cmd.Context(), snapshot)
			if res.Warning != nil {
				fmt.Fprintf(out, "warning: %v\n", res.Warning)
			}
			fmt.Fprintf(out, "%s: %d elements\n", res.Caption.Caption(), res.Count)

			sh := &selectShell{session: s, query: q, out: out}
			return sh.run(cmd.InOrStdin())
		},
	}
	flags.register(cmd)
	return cmd
}

// selectShell drives a session's controller from text commands.
type selectShell struct {
	session *inspector.Session
	query   catalog.Query
	out     io.Writer
}

func (sh *selectShell) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := sh.exec(fields[0], fields[1:]); err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (sh *selectShell) exec(verb string, args []string) error {
	ctl := sh.session.Controller()
	switch verb {
	case "help":
		fmt.Fprint(sh.out, selectHelp)
	case "list":
		v := sh.session.View(sh.query)
		for _, el := range v.Page.Items {
			fmt.Fprintf(sh.out, "%-12s %-10s %-8s %-20s %s\n",
				el.ID, el.Category, el.Importance, ctl.State(el.ID), el.DisplayName)
		}
		fmt.Fprintf(sh.out, "%d of %d shown\n", len(v.Page.Items), v.Page.Total)
	case "hover":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		ctl.PointerEnter(id)
	case "leave":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		ctl.PointerLeave(id)
	case "click":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		if !sh.session.Click(sh.session.View(sh.query), id) {
			return fmt.Errorf("%s cannot be selected", id)
		}
		fmt.Fprintf(sh.out, "pending %s, confirm or cancel\n", id)
	case "tap":
		if len(args) != 2 {
			return fmt.Errorf("tap needs x and y")
		}
		x, errX := strconv.ParseFloat(args[0], 64)
		y, errY := strconv.ParseFloat(args[1], 64)
		if errX != nil || errY != nil {
			return fmt.Errorf("tap coordinates must be numbers")
		}
		id, ok := sh.session.ClickAt(sh.session.View(sh.query), x, y)
		if !ok {
			return fmt.Errorf("nothing selectable at %g,%g", x, y)
		}
		fmt.Fprintf(sh.out, "pending %s, confirm or cancel\n", id)
	case "confirm":
		if !ctl.Confirm() {
			return fmt.Errorf("nothing is pending")
		}
	case "cancel":
		ctl.Cancel()
	case "hide":
		if len(args) == 0 {
			if !ctl.Hide() {
				return fmt.Errorf("nothing is pending")
			}
			return nil
		}
		if !ctl.HideElement(args[0]) {
			return fmt.Errorf("unknown element %s", args[0])
		}
		fmt.Fprintf(sh.out, "hidden %s for %s\n", args[0], ctl.AutoRestore())
	case "restore":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		if id == "all" {
			fmt.Fprintf(sh.out, "restored %d\n", ctl.RestoreAll())
			return nil
		}
		if !ctl.Restore(id) {
			return fmt.Errorf("%s is not hidden", id)
		}
	case "hidden":
		return writeJSON(sh.out, ctl.HiddenEntries())
	case "state":
		id, err := oneID(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(sh.out, ctl.State(id))
	default:
		return fmt.Errorf("unknown command %q (try help)", verb)
	}
	return nil
}

func oneID(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one element id")
	}
	return args[0], nil
}
