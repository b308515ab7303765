package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const replHelp = `
cogkernel-cli interactive shell — available commands:

  ping                              Check daemon health
  status                            Show kernel status
  sleep                             Trigger a manual sleep cycle
  ingest <payload>                  Ingest through reflex/deep-think
    ingest <payload> --type log --id req-1 --dim 1024
  hfs write <intent> <content>      Write into the holographic file store
  hfs search <query>                Search the holographic file store
    hfs search <query> --dim 1024 --limit 10

  Shell:
    \help                           Show this help
    \quit  (or exit, quit, Ctrl-D)  Exit
`

// runREPL starts the interactive shell.
func runREPL(c *cli) {
	if err := c.silentGet("/health"); err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot reach %s — %v\n", c.baseURL, err)
		os.Exit(1)
	}

	fmt.Printf("Connected to cogkerneld at %s\nType \\help for commands, \\quit to exit.\n\n", c.baseURL)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("cogkernel> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if done := dispatchREPL(c, line); done {
			fmt.Println("Bye.")
			break
		}
	}
}

// dispatchREPL parses and executes one REPL line. Returns true when the
// user wants to quit.
func dispatchREPL(c *cli, line string) bool {
	parts := tokenize(line)
	if len(parts) == 0 {
		return false
	}
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "\\quit", "exit", "quit":
		return true
	case "\\help":
		fmt.Print(replHelp)
	case "ping":
		must(c.getJSON("/health"))
	case "status":
		must(c.getJSON("/v1/status"))
	case "sleep":
		must(c.postJSON("/v1/sleep", ""))
	case "ingest":
		replIngest(c, args)
	case "hfs":
		replHFS(c, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q, try \\help\n", cmd)
	}
	return false
}

func replIngest(c *cli, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ingest <payload> [--type T] [--id ID] [--dim N]")
		return
	}
	payload, flags := splitFlags(args)
	datasetType := flags["type"]
	if datasetType == "" {
		datasetType = "log"
	}
	dim := 1024
	if v, ok := flags["dim"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			dim = n
		}
	}
	body, err := json.Marshal(ingestRequest{
		DatasetType: datasetType,
		DatasetID:   flags["id"],
		Payload:     payload,
		DimHint:     dim,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	must(c.postJSON("/v1/ingest", string(body)))
}

func replHFS(c *cli, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: hfs write <intent> <content> | hfs search <query> [--dim N] [--limit N]")
		return
	}
	switch args[0] {
	case "write":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: hfs write <intent> <content>")
			return
		}
		body, err := json.Marshal(hfsWriteRequest{Intent: args[1], Content: strings.Join(args[2:], " "), Dim: 1024})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		must(c.postJSON("/v1/hfs/write", string(body)))
	case "search":
		query, flags := splitFlags(args[1:])
		dim := 1024
		if v, ok := flags["dim"]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				dim = n
			}
		}
		limit := 10
		if v, ok := flags["limit"]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		must(c.getJSON(fmt.Sprintf("/v1/hfs/search?q=%s&dim=%d&limit=%d", urlEscape(query), dim, limit)))
	default:
		fmt.Fprintf(os.Stderr, "unknown hfs subcommand %q\n", args[0])
	}
}

// splitFlags pulls "--key value" pairs out of args, returning the remaining
// non-flag tokens joined back into one positional string.
func splitFlags(args []string) (string, map[string]string) {
	flags := make(map[string]string)
	var positional []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "--") && i+1 < len(args) {
			flags[strings.TrimPrefix(args[i], "--")] = args[i+1]
			i++
			continue
		}
		positional = append(positional, args[i])
	}
	return strings.Join(positional, " "), flags
}

// tokenize splits a REPL line on whitespace while keeping double-quoted
// spans intact.
func tokenize(line string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
