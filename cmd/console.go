package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sergev/zoetrope/channel"
)

const historyFile = ".zoetrope_history"

var errQuit = errors.New("quit")

type consoleCommand struct {
	Usage       string
	Description string
	run         func(c *console, args []string) error
}

// consoleCommands is filled by init, as help refers back to it
var consoleCommands map[string]consoleCommand

// console interprets command lines against a running channel
type console struct {
	ch *channel.Channel

	mu  sync.Mutex // completions are reported from other goroutines
	out io.Writer
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// execute runs one command line, returning errQuit to leave the console
func (c *console) execute(line string) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil
	}
	name := strings.ToLower(tokens[0])
	if name == "exit" {
		name = "quit"
	}
	command, ok := consoleCommands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, type \"help\" for commands", tokens[0])
	}
	return command.run(c, tokens[1:])
}

// submit queues a command and reports its outcome when it completes
func (c *console) submit(op channel.Opcode, args []int) error {
	cmd, err := c.ch.BuildCommand(op, args)
	if err != nil {
		return err
	}
	c.printf("%s %s queued\n", op, cmd.Frame())
	go func() {
		if err := cmd.Err(); err != nil {
			c.printf("%s %s: %v\n", op, cmd.Frame(), err)
			return
		}
		c.printf("%s %s acknowledged\n", op, cmd.Frame())
	}()
	return nil
}

func (c *console) debug(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: debug SEGMENT")
	}
	segment, err := parseByte(args[0])
	if err != nil {
		return err
	}
	return c.submit(channel.DebugSegment, []int{segment})
}

func (c *console) mode(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: mode MODE [BYTE...]")
	}
	payload := make([]int, len(args))
	for i, arg := range args {
		v, err := parseByte(arg)
		if err != nil {
			return err
		}
		payload[i] = v
	}
	return c.submit(channel.AnimationMode, payload)
}

func (c *console) state([]string) error {
	s := c.ch.State()
	switch {
	case s.Pending == nil:
		c.printf("Pending: none\n")
	case s.Sent:
		c.printf("Pending: %s %s, awaiting echo\n", s.Pending.Opcode(), s.Pending)
	default:
		c.printf("Pending: %s %s, not written yet\n", s.Pending.Opcode(), s.Pending)
	}
	if s.LastReceived != nil {
		c.printf("Last received: %s\n", s.LastReceived)
	} else {
		c.printf("Last received: none\n")
	}
	return nil
}

func (c *console) help([]string) error {
	for _, name := range commandNames() {
		command := consoleCommands[name]
		c.printf("  %-20s %s\n", command.Usage, command.Description)
	}
	return nil
}

func commandNames() []string {
	names := make([]string, 0, len(consoleCommands))
	for name := range consoleCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// complete returns the command names starting with line
func complete(line string) (c []string) {
	for _, name := range commandNames() {
		if strings.HasPrefix(name, strings.ToLower(line)) {
			c = append(c, name)
		}
	}
	return
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Send commands interactively",
	Long: `Open an interactive shell which sends commands to the LED controller.
Commands are queued immediately; their acknowledgment is reported when the
controller echoes them. Type "help" for commands, Ctrl-D to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, stop := startChannel(cmd.Context())
		defer stop()

		c := &console{ch: ch, out: cmd.OutOrStdout()}

		shell := liner.NewLiner()
		defer shell.Close()

		shell.SetCtrlCAborts(true)
		shell.SetCompleter(complete)

		history := historyPath()
		if f, err := os.Open(history); err == nil {
			shell.ReadHistory(f)
			f.Close()
		}

		c.printf("Connected to %s. Type \"help\" for commands, Ctrl-D to quit.\n", device)
		for {
			input, err := shell.Prompt("> ")
			if err == liner.ErrPromptAborted || err == io.EOF {
				c.printf("\n")
				break
			}
			if err != nil {
				return err
			}
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			shell.AppendHistory(input)

			err = c.execute(input)
			if errors.Is(err, errQuit) {
				break
			}
			if err != nil {
				c.printf("%v\n", err)
			}
		}

		if f, err := os.Create(history); err == nil {
			shell.WriteHistory(f)
			f.Close()
		} else {
			log.Debug().Err(err).Str("path", history).Msg("history not saved")
		}
		return nil
	},
}

func init() {
	consoleCommands = map[string]consoleCommand{
		"debug": {"debug SEGMENT", "light one wiring segment", (*console).debug},
		"mode":  {"mode MODE [BYTE...]", "switch the animation mode", (*console).mode},
		"state": {"state", "show the pending command and last received frame", (*console).state},
		"help":  {"help", "list commands", (*console).help},
		"quit":  {"quit", "leave the console", func(*console, []string) error { return errQuit }},
	}
	rootCmd.AddCommand(consoleCmd)
}
