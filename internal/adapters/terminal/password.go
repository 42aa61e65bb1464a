package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Adapter handles secure token input from the terminal.
type Adapter struct {
	stdin  io.Reader
	stderr io.Writer
}

// NewAdapter creates a new terminal adapter.
func NewAdapter(stdin io.Reader, stderr io.Writer) *Adapter {
	return &Adapter{
		stdin:  stdin,
		stderr: stderr,
	}
}

// ReadPassword reads a secret with echo disabled. When stdin is not a
// terminal the first line of stdin is used, so tokens can be piped in.
func (a *Adapter) ReadPassword(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if !a.IsInteractive() {
		return a.readLine()
	}

	fmt.Fprint(a.stderr, prompt)

	file, _ := a.stdin.(*os.File)
	secret, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(a.stderr) // Print newline after input
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}

// IsInteractive returns true if stdin is a terminal.
func (a *Adapter) IsInteractive() bool {
	if file, ok := a.stdin.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}

func (a *Adapter) readLine() (string, error) {
	reader := bufio.NewReader(a.stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token from stdin: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no token provided on stdin")
	}
	return line, nil
}
