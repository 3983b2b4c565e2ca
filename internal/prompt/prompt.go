// Package prompt asks the user questions on the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/vietdv277/awsfree/internal/ui"
	"github.com/vietdv277/awsfree/pkg/types"
)

// ErrAmbiguous is returned when a choice is required but cannot be asked
var ErrAmbiguous = errors.New("more than one instance matches")

// ErrNoInput is returned when the input closes before an answer is given.
// A closed stdin never counts as consent.
var ErrNoInput = errors.New("no answer: input closed")

// Prompter asks confirmations, free-form inputs and instance selections
type Prompter interface {
	// Confirm asks a yes/no question; an empty answer picks the default
	Confirm(question string, defaultYes bool) (bool, error)

	// Input asks for a value; an empty answer picks def
	Input(question, def string) (string, error)

	// SelectInstance asks the user to pick one of instances
	SelectInstance(title string, instances []types.Instance) (*types.Instance, error)
}

// Interactive prompts on a terminal. When the input is a TTY the instance
// selector is the full-screen picker, otherwise a numbered list.
type Interactive struct {
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
	tty    bool
}

// NewInteractive returns a prompter reading in and writing out
func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	tty := false
	if f, ok := in.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &Interactive{
		in:     in,
		out:    out,
		reader: bufio.NewReader(in),
		tty:    tty,
	}
}

func (p *Interactive) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *Interactive) Confirm(question string, defaultYes bool) (bool, error) {
	choices := "[y/N]"
	if defaultYes {
		choices = "[Y/n]"
	}
	fmt.Fprintf(p.out, "%s %s: ", question, choices)

	answer, err := p.readLine()
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(p.out)
		return false, fmt.Errorf("%s: %w", question, ErrNoInput)
	}
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (p *Interactive) Input(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}

	answer, err := p.readLine()
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(p.out)
		return "", fmt.Errorf("%s: %w", question, ErrNoInput)
	}
	if err != nil {
		return "", err
	}

	if answer == "" {
		return def, nil
	}
	return answer, nil
}

func (p *Interactive) SelectInstance(title string, instances []types.Instance) (*types.Instance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("no instances to select from")
	}

	if p.tty {
		return ui.SelectInstance(p.in, p.out, title, instances)
	}

	fmt.Fprintln(p.out, title)
	for i, inst := range instances {
		fmt.Fprintf(p.out, "  %d) %s  %s  %s\n", i+1, inst.ID, inst.State, inst.Name)
	}
	fmt.Fprintf(p.out, "Select instance [1-%d]: ", len(instances))

	answer, err := p.readLine()
	if errors.Is(err, io.EOF) || (err == nil && answer == "") {
		fmt.Fprintln(p.out)
		return nil, ui.ErrSelectionCancelled
	}
	if err != nil {
		return nil, err
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(instances) {
		return nil, fmt.Errorf("invalid selection %q", answer)
	}

	selected := instances[n-1]
	return &selected, nil
}

// Auto answers every question without reading input, for --yes
type Auto struct {
	out io.Writer
}

// NewAuto returns a prompter that echoes its automatic answers to out
func NewAuto(out io.Writer) *Auto {
	return &Auto{out: out}
}

func (a *Auto) Confirm(question string, _ bool) (bool, error) {
	fmt.Fprintf(a.out, "%s %s\n", question, ui.MutedStyle.Render("[yes]"))
	return true, nil
}

func (a *Auto) Input(question, def string) (string, error) {
	if def == "" {
		return "", fmt.Errorf("%s: a value is required and cannot be asked with --yes", question)
	}
	fmt.Fprintf(a.out, "%s %s\n", question, ui.MutedStyle.Render("["+def+"]"))
	return def, nil
}

func (a *Auto) SelectInstance(_ string, instances []types.Instance) (*types.Instance, error) {
	switch len(instances) {
	case 0:
		return nil, fmt.Errorf("no instances to select from")
	case 1:
		return &instances[0], nil
	}

	ids := make([]string, 0, len(instances))
	for _, inst := range instances {
		ids = append(ids, inst.ID)
	}
	return nil, fmt.Errorf("%w (%s); pass an instance id", ErrAmbiguous, strings.Join(ids, ", "))
}
