// Package input reads answers from the terminal for interactive commands.
//
// Commands check IsInteractive before prompting, so scripted runs and CI
// never block on a question.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	mu     sync.Mutex
	reader *bufio.Reader = bufio.NewReader(os.Stdin)
	writer io.Writer     = os.Stdout
)

// SetIO redirects prompts and answers. Nil values restore stdin and stdout.
func SetIO(in io.Reader, out io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	reader = bufio.NewReader(in)
	writer = out
}

// IsInteractive reports whether stdin and stdout are both terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Prompt asks for text input. An empty answer, or a read error, returns
// defaultValue.
//
//	version := input.Prompt("Program version", "1.18.1")
//	// Program version (1.18.1): _
func Prompt(message, defaultValue string) string {
	mu.Lock()
	defer mu.Unlock()

	if defaultValue != "" {
		fmt.Fprint(writer, promptStyle.Render(message)+" "+hintStyle.Render("("+defaultValue+")")+": ")
	} else {
		fmt.Fprint(writer, promptStyle.Render(message)+": ")
	}

	answer, err := reader.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "" || (err != nil && err != io.EOF) {
		return defaultValue
	}
	return answer
}

// Confirm asks a yes/no question. Enter alone, or a read error, returns
// defaultYes.
func Confirm(message string, defaultYes bool) bool {
	mu.Lock()
	defer mu.Unlock()

	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprint(writer, promptStyle.Render(message)+" "+hintStyle.Render(hint)+": ")

	answer, err := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" || (err != nil && err != io.EOF) {
		return defaultYes
	}
	return answer == "y" || answer == "yes"
}
