package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

const replHelp = `Commands:
  insert <key> <val>   Insert a value (overwrites on maps, appends on multimap)
  get <key>            Look up a key
  remove <key>         Remove a key's value
  len                  Count live values
  fill <n> [start]     Insert n sequential keys
  help                 Show this help
  exit / quit / q      Exit
`

var replCommands = []string{"insert", "get", "remove", "len", "fill", "help", "exit", "quit"}

// repl runs a line-edited loop against b until EOF or an exit command.
func repl(out io.Writer, b backend) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) (c []string) {
		for _, cmd := range replCommands {
			if strings.HasPrefix(cmd, strings.ToLower(prefix)) {
				c = append(c, cmd)
			}
		}
		return c
	})

	fmt.Fprintf(out, "containerbench: driving %s; 'help' lists commands\n", b.name())
	for {
		input, err := line.Prompt(b.name() + "> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "exit", "quit", "q":
			return nil
		case "help":
			fmt.Fprint(out, replHelp)
		case "len":
			fmt.Fprintln(out, b.length())
		case "insert":
			k, v, err := parseTwoInts(args)
			if err != nil {
				fmt.Fprintln(out, "usage: insert <key> <val>")
				continue
			}
			b.insert(k, v)
			fmt.Fprintln(out, "ok")
		case "get":
			k, err := parseOneInt(args)
			if err != nil {
				fmt.Fprintln(out, "usage: get <key>")
				continue
			}
			if v, ok := b.get(k); ok {
				fmt.Fprintln(out, v)
			} else {
				fmt.Fprintln(out, "(absent)")
			}
		case "remove":
			k, err := parseOneInt(args)
			if err != nil {
				fmt.Fprintln(out, "usage: remove <key>")
				continue
			}
			if b.remove(k) {
				fmt.Fprintln(out, "removed")
			} else {
				fmt.Fprintln(out, "(absent)")
			}
		case "fill":
			if len(args) == 0 {
				fmt.Fprintln(out, "usage: fill <n> [start]")
				continue
			}
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 0 {
				fmt.Fprintln(out, "usage: fill <n> [start]")
				continue
			}
			start := 0
			if len(args) > 1 {
				if start, err = strconv.Atoi(args[1]); err != nil {
					fmt.Fprintln(out, "usage: fill <n> [start]")
					continue
				}
			}
			for i := 0; i < n; i++ {
				b.insert(start+i, start+i)
			}
			fmt.Fprintf(out, "inserted %d, len now %d\n", n, b.length())
		default:
			fmt.Fprintf(out, "unknown command %q; 'help' lists commands\n", cmd)
		}
	}
}

func parseOneInt(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("want one argument")
	}
	return strconv.Atoi(args[0])
}

func parseTwoInts(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errors.New("want two arguments")
	}
	a, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
