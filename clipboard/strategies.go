package clipboard

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// NativeStrategy writes to the system clipboard
type NativeStrategy struct{}

// Method implements Strategy
func (NativeStrategy) Method() Method {
	return MethodNative
}

// Copy implements Strategy
func (NativeStrategy) Copy(text string) error {
	if !nativeSupported() {
		return errors.New("system clipboard not available")
	}
	return errors.WithStack(clipboard.WriteAll(text))
}

func nativeSupported() bool {
	return !clipboard.Unsupported
}

type copyCommand struct {
	name string
	args []string
	// env must be set for the command to be usable
	env string
}

var copyCommands = []copyCommand{
	{
		name: "wl-copy",
		env:  "WAYLAND_DISPLAY",
	},
	{
		name: "xclip",
		args: []string{
			"-selection",
			"clipboard",
		},
		env: "DISPLAY",
	},
	{
		name: "xsel",
		args: []string{
			"--clipboard",
			"--input",
		},
		env: "DISPLAY",
	},
	{name: "pbcopy"},
	{name: "clip.exe"},
}

func findCopyCommand() (*exec.Cmd, bool) {
	for _, c := range copyCommands {
		if c.env != "" && os.Getenv(c.env) == "" {
			continue
		}
		path, err := exec.LookPath(c.name)
		if err != nil {
			continue
		}
		return exec.Command(path, c.args...), true
	}
	return nil, false
}

// CommandStrategy pipes the text into the first available copy command
type CommandStrategy struct{}

// Method implements Strategy
func (CommandStrategy) Method() Method {
	return MethodCommand
}

// Copy implements Strategy
func (CommandStrategy) Copy(text string) error {
	cmd, ok := findCopyCommand()
	if !ok {
		return errors.New("no copy command found")
	}
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "%s: %s", cmd.Path, strings.TrimSpace(string(out)))
	}
	return nil
}

// TerminalStrategy asks the terminal to set the clipboard with an OSC 52
// escape sequence. Only single line text is sent.
type TerminalStrategy struct {
	Out io.Writer
}

// Method implements Strategy
func (TerminalStrategy) Method() Method {
	return MethodTerminal
}

// Copy implements Strategy
func (s TerminalStrategy) Copy(text string) error {
	if !terminalSupported(s.Out) {
		return errors.New("output is not a terminal")
	}
	if strings.ContainsAny(text, "\r\n") {
		return errors.New("text spans multiple lines")
	}
	_, err := fmt.Fprintf(s.Out, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	return errors.WithStack(err)
}

func terminalSupported(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok || f == nil {
		return false
	}
	if term := os.Getenv("TERM"); term == "" || term == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ManualStrategy prints the text for the user to copy. If In is set it waits
// for the user to press enter, without timeout.
type ManualStrategy struct {
	Out io.Writer
	In  io.Reader
}

// Method implements Strategy
func (ManualStrategy) Method() Method {
	return MethodManual
}

// Copy implements Strategy
func (s ManualStrategy) Copy(text string) error {
	if s.Out == nil {
		return errors.New("no output to show the text on")
	}
	if _, err := fmt.Fprintf(s.Out, "Copy the following text:\n\n    %s\n\n", text); err != nil {
		return errors.WithStack(err)
	}
	if s.In == nil {
		return nil
	}
	if _, err := fmt.Fprint(s.Out, "Press Enter when done."); err != nil {
		return errors.WithStack(err)
	}
	if _, err := bufio.NewReader(s.In).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return errors.WithStack(err)
	}
	_, _ = fmt.Fprintln(s.Out)
	return nil
}
