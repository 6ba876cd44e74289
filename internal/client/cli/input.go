package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errEmptyInput = errors.New("input must not be empty")

// GetSimpleText writes prompt to w and reads one trimmed line. A final
// line without a newline is accepted at EOF.
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetRequiredText is GetSimpleText that rejects blank answers.
func GetRequiredText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	s, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", errEmptyInput
	}
	return s, nil
}

// GetPassword reads a password from the terminal without echo. Callers wipe
// the returned slice.
func GetPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// argOrPrompt joins args into a single value, prompting when there are none.
func argOrPrompt(args []string, reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if v := strings.TrimSpace(strings.Join(args, " ")); v != "" {
		return v, nil
	}
	return getRequiredText(reader, prompt, w)
}
