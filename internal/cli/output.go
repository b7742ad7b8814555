package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/MJE43/dodepa/internal/games"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The action ran but was rejected, or a script stopped on error
	ExitCommandError = 2 // Bad arguments, unreadable config or files, storage errors
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the JSON envelope for every command.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// Success writes data as JSON, or text in text mode.
func (f *OutputFormatter) Success(data interface{}, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := io.WriteString(f.Writer, text)
	return err
}

// Rejected is Success for an action the engine turned down.
func (f *OutputFormatter) Rejected(data interface{}, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "rejected", Data: data})
	}
	_, err := io.WriteString(f.Writer, text)
	return err
}

func formatStats(st games.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Money:      %s\n", humanize.Comma(int64(st.Money)))
	fmt.Fprintf(&b, "Energy:     %d\n", st.Energy)
	fmt.Fprintf(&b, "Reputation: %d\n", st.Reputation)
	fmt.Fprintf(&b, "Debt:       %s\n", humanize.Comma(int64(st.Debt)))
	fmt.Fprintf(&b, "Bet:        %s\n", humanize.Comma(int64(st.Bet)))
	return b.String()
}

func formatResult(res games.Result, st games.State) string {
	mark := "ok"
	if !res.Accepted {
		mark = "rejected"
	}
	return fmt.Sprintf("[%s] %s\n%s", mark, res.Message, formatStats(st))
}

func formatLogs(logs []string) string {
	if len(logs) == 0 {
		return "No events yet.\n"
	}
	var b strings.Builder
	for i, l := range logs {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, l)
	}
	return b.String()
}
