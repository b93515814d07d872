// Package input reads line-based answers from a terminal or any reader.
//
// It is the fallback for prompts when the interactive menu cannot run
// (no TTY, CI logs).
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Option is one answer to a Choose prompt. Key is what the user types.
type Option struct {
	Key   string
	Label string
}

// Reader asks questions on out and reads answers from in.
type Reader struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Reader.
func New(in io.Reader, out io.Writer) *Reader {
	return &Reader{in: bufio.NewReader(in), out: out}
}

// Stdio returns a Reader on stdin and stdout.
func Stdio() *Reader {
	return New(os.Stdin, os.Stdout)
}

func (r *Reader) readLine() (string, error) {
	line, err := r.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Prompt asks for text input with an optional default value.
// If the user presses Enter without typing anything, the default is returned.
//
//	name := r.Prompt("Project name", "app")
//	// Displays: Project name (app): _
func (r *Reader) Prompt(message, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprint(r.out, promptStyle.Render(message)+" "+hintStyle.Render(fmt.Sprintf("(%s)", defaultValue))+": ")
	} else {
		fmt.Fprint(r.out, promptStyle.Render(message)+": ")
	}

	answer, err := r.readLine()
	if err != nil || answer == "" {
		return defaultValue
	}
	return answer
}

// Confirm asks a yes/no question. Enter returns defaultYes.
func (r *Reader) Confirm(message string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprint(r.out, promptStyle.Render(message)+" "+hintStyle.Render(hint)+": ")

	answer, err := r.readLine()
	if err != nil || answer == "" {
		return defaultYes
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// Choose asks the user to pick one of options by key (case-insensitive) and
// returns its index. Enter picks def. Unknown answers re-ask; end of input
// returns io.EOF.
//
//	i, err := r.Choose("Apply codemod?", []input.Option{{"y", "yes"}, {"n", "no"}}, 0)
//	// Displays: Apply codemod? [Y/n]: _
func (r *Reader) Choose(message string, options []Option, def int) (int, error) {
	keys := make([]string, len(options))
	for i, o := range options {
		keys[i] = strings.ToLower(o.Key)
		if i == def {
			keys[i] = strings.ToUpper(o.Key)
		}
	}
	hint := "[" + strings.Join(keys, "/") + "]"

	for {
		fmt.Fprint(r.out, promptStyle.Render(message)+" "+hintStyle.Render(hint)+": ")

		answer, err := r.readLine()
		if err != nil {
			return def, err
		}
		if answer == "" {
			return def, nil
		}
		for i, o := range options {
			if strings.EqualFold(answer, o.Key) || strings.EqualFold(answer, o.Label) {
				return i, nil
			}
		}

		labels := make([]string, len(options))
		for i, o := range options {
			labels[i] = o.Key + "=" + o.Label
		}
		fmt.Fprintln(r.out, hintStyle.Render("Please answer "+strings.Join(labels, ", ")))
	}
}
