// Package clipboard copies text, usually a verification link, to the user's
// clipboard. Several strategies are tried in order until one succeeds; the
// last one prints the text so the user can copy it by hand.
package clipboard

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Method names the strategy that handled a copy
type Method string

// Methods in the order they are tried by the default Copier
const (
	MethodNative   Method = "native"
	MethodCommand  Method = "command"
	MethodTerminal Method = "terminal"
	MethodManual   Method = "manual"
	// MethodNone is reported when every strategy failed
	MethodNone Method = "none"
)

// ErrExhausted is returned when every strategy failed
var ErrExhausted = errors.New("all clipboard strategies failed")

// Result is the outcome of Copier.Copy
type Result struct {
	Success bool
	Method  Method
	Err     error
}

// Strategy is one way to get text to the user
type Strategy interface {
	Method() Method
	Copy(text string) error
}

// Copier tries its strategies in order
type Copier struct {
	strategies []Strategy
}

// NewCopier returns a Copier with the default strategies. out receives the
// terminal escape sequence and the manual fallback, in is read to wait for
// the user to confirm the manual copy; both may be nil.
func NewCopier(out io.Writer, in io.Reader) *Copier {
	return NewCopierWithStrategies(
		NativeStrategy{},
		CommandStrategy{},
		TerminalStrategy{Out: out},
		ManualStrategy{
			Out: out,
			In:  in,
		},
	)
}

// NewCopierWithStrategies returns a Copier trying the given strategies in
// order
func NewCopierWithStrategies(strategies ...Strategy) *Copier {
	return &Copier{strategies: strategies}
}

// Copy tries every strategy until one succeeds. A strategy that returns an
// error or panics counts as failed. Copy itself never panics.
func (c *Copier) Copy(text string) Result {
	var failures []string
	for _, s := range c.strategies {
		err := attempt(s, text)
		if err == nil {
			return Result{
				Success: true,
				Method:  s.Method(),
			}
		}
		log.WithError(err).WithField("method", s.Method()).Debug("clipboard strategy failed")
		failures = append(failures, fmt.Sprintf("%s: %s", s.Method(), err))
	}
	return Result{
		Method: MethodNone,
		Err:    errors.Wrap(ErrExhausted, strings.Join(failures, "; ")),
	}
}

func attempt(s Strategy, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return s.Copy(text)
}

// User facing messages returned by Message
const (
	MessageCopied = "Copied to clipboard!"
	MessageManual = "Automatic copy is not available, please copy from the dialog."
	MessageFailed = "Failed to copy. Please try again or copy the link manually."
)

// Message maps a copy result to a message for the user
func Message(result Result) string {
	if !result.Success {
		return MessageFailed
	}
	if result.Method == MethodManual {
		return MessageManual
	}
	return MessageCopied
}

// IsSupported reports whether text can be copied without user interaction.
// It only selects wording, Copy always runs the full chain.
func IsSupported() bool {
	if nativeSupported() {
		return true
	}
	if _, ok := findCopyCommand(); ok {
		return true
	}
	return terminalSupported(os.Stdout)
}

// Mode labels returned by ModeLabel
const (
	ModeAutomatic = "automatic"
	ModeManual    = "manual"
)

// ModeLabel returns ModeAutomatic if IsSupported, ModeManual otherwise
func ModeLabel() string {
	if IsSupported() {
		return ModeAutomatic
	}
	return ModeManual
}
