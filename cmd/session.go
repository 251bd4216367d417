package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"moviematch/internal/catalog"
	"moviematch/internal/session"
)

const replHelp = `Commands:
  select <title>     add a liked movie and rebuild recommendations
  unselect <title|n> remove a liked movie (n = position in the selection)
  clear              clear the selection (seen movies are remembered)
  seen <n|title>     mark a displayed movie as seen (n = position on display)
  show               show the selection and current recommendations
  pool               show the replacement pool
  help               show this help
  quit               leave the session`

var sessionCmd = &cobra.Command{
	Use:   "session [title]...",
	Short: "Interactive recommendation session",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		engine, err := LoadEngine(d)
		if err != nil {
			return err
		}

		r := &repl{
			out:  cmd.OutOrStdout(),
			sess: session.New(uuid.NewString(), engine, sessionOptions(cfg), logger),
			cat:  engine.Catalog,
			resolve: func(ref string) (string, error) {
				rec, err := ResolveMovie(d, engine.Catalog, ref)
				return rec.Title, err
			},
		}
		for _, arg := range args {
			r.exec("select " + arg)
		}

		in := cmd.InOrStdin()
		interactive := false
		if f, ok := in.(*os.File); ok {
			interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		if interactive {
			fmt.Fprintln(r.out, "Type 'help' for commands.")
		}
		return r.run(in, interactive)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

// repl drives one session from line commands.
type repl struct {
	out       io.Writer
	sess      *session.Session
	cat       *catalog.Catalog
	resolve   func(string) (string, error)
	selection []string
}

func (r *repl) run(in io.Reader, interactive bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(r.out, "moviematch> ")
		}
		if !scanner.Scan() {
			break
		}
		if r.exec(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

func parseCommand(line string) (verb, arg string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	verb, arg, _ = strings.Cut(line, " ")
	return strings.ToLower(verb), strings.TrimSpace(arg)
}

// exec runs one command line and reports whether the session should end.
func (r *repl) exec(line string) bool {
	verb, arg := parseCommand(line)
	switch verb {
	case "":
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(r.out, replHelp)
	case "select", "add":
		r.selectTitle(arg)
	case "unselect", "remove", "rm":
		r.unselectTitle(arg)
	case "clear":
		r.selection = nil
		r.sess.Sync(nil)
		fmt.Fprintln(r.out, "Selection cleared.")
	case "seen":
		r.markSeen(arg)
	case "show", "ls":
		r.show()
	case "pool":
		r.showPool()
	default:
		fmt.Fprintf(r.out, "Unknown command %q. Type 'help' for commands.\n", verb)
	}
	return false
}

func (r *repl) selectTitle(arg string) {
	if arg == "" {
		fmt.Fprintln(r.out, "usage: select <title>")
		return
	}
	title, err := r.resolve(arg)
	if err != nil {
		fmt.Fprintln(r.out, err)
		return
	}
	if slices.Contains(r.selection, title) {
		fmt.Fprintf(r.out, "%s is already selected.\n", title)
		return
	}
	r.selection = append(r.selection, title)
	r.sync()
}

func (r *repl) unselectTitle(arg string) {
	if arg == "" {
		fmt.Fprintln(r.out, "usage: unselect <title|n>")
		return
	}
	title, ok := pick(r.selection, arg)
	if !ok {
		if resolved, err := r.resolve(arg); err == nil {
			title = resolved
		}
	}
	i := slices.Index(r.selection, title)
	if i < 0 {
		fmt.Fprintf(r.out, "%s is not selected.\n", arg)
		return
	}
	r.selection = slices.Delete(r.selection, i, i+1)
	r.sync()
}

// pick reads arg as an exact title from list, then as a 1-based position in
// it. Numeric titles such as "1917" match as titles first.
func pick(list []string, arg string) (string, bool) {
	if slices.Contains(list, arg) {
		return arg, true
	}
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(list) {
		return list[n-1], true
	}
	return "", false
}

func (r *repl) sync() {
	r.sess.Sync(r.selection)
	if skipped := r.sess.Snapshot().Skipped; len(skipped) > 0 {
		fmt.Fprintf(r.out, "No similarity data for: %s\n", strings.Join(skipped, ", "))
	}
	r.show()
}

func (r *repl) markSeen(arg string) {
	st := r.sess.Snapshot()
	if arg == "" {
		fmt.Fprintln(r.out, "usage: seen <n|title>")
		return
	}

	title, ok := pick(st.Displayed, arg)
	if !ok {
		resolved, err := r.resolve(arg)
		n, nerr := strconv.Atoi(arg)
		switch {
		case err == nil && slices.Contains(st.Displayed, resolved):
			title = resolved
		case nerr == nil:
			fmt.Fprintf(r.out, "No recommendation #%d on display.\n", n)
			return
		case err != nil:
			fmt.Fprintln(r.out, err)
			return
		default:
			title = resolved
		}
	}

	if !r.sess.MarkSeen(title) {
		fmt.Fprintf(r.out, "%s is not on display.\n", title)
		return
	}
	r.show()
}

func (r *repl) show() {
	st := r.sess.Snapshot()
	if len(st.Selection) == 0 {
		fmt.Fprintln(r.out, "Nothing selected. Use 'select <title>' to add a movie you like.")
		return
	}
	fmt.Fprintf(r.out, "Selected: %s\n", strings.Join(st.Selection, ", "))
	if st.Status == session.StatusEmpty {
		fmt.Fprintln(r.out, "No recommendations left. Select another movie.")
		return
	}

	rows := make([][]string, len(st.Displayed))
	for i, title := range st.Displayed {
		year, genres := "", ""
		if rec, ok := r.cat.Lookup(title); ok {
			year = yearString(rec.ReleaseYear)
			genres = truncTitle(strings.Join(rec.Genres, ", "), 30)
		}
		rows[i] = []string{strconv.Itoa(i + 1), truncTitle(title, 45), year, genres}
	}
	fmt.Fprintln(r.out, renderTable(
		[]string{"#", "Title", "Year", "Genres"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(r.out, "%d in pool, %d seen\n", len(st.Pool), len(st.Seen))
}

func (r *repl) showPool() {
	st := r.sess.Snapshot()
	if len(st.Pool) == 0 {
		fmt.Fprintln(r.out, "Pool is empty.")
		return
	}
	for i, title := range st.Pool {
		fmt.Fprintf(r.out, "  %2d. %s\n", i+1, title)
	}
}
