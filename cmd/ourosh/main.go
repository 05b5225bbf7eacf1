package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/chzyer/readline"
)

const usage = `Commands
	send <text>: append one record to the ring
	recv: consume and print the oldest record
	help: print this message
	exit: leave the shell
`

func main() {
	socket := flag.String("socket", "/tmp/ouroboros.sock", "unix socket of the ring host")
	flag.Parse()

	rl, err := readline.NewEx(&readline.Config{
		Prompt: "ouro> ",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("send"),
			readline.PcItem("recv"),
			readline.PcItem("help"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}

		line = strings.TrimSpace(line)
		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "":
		case "send":
			if rest == "" {
				fmt.Println("usage: send <text>")
				continue
			}
			if err := sendRecord(*socket, rest); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case "recv":
			rec, empty, err := recvRecord(*socket)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			if empty {
				fmt.Println("(no data)")
			} else {
				fmt.Println(rec)
			}
		case "help":
			fmt.Print(usage)
		case "exit", "quit":
			return
		default:
			fmt.Printf("Invalid command: %s\n", cmd)
			fmt.Print(usage)
		}
	}
}

// sendRecord performs one open/write/close cycle against the host.
func sendRecord(socket, text string) error {
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write([]byte(text + "\n"))
	return err
}

// recvRecord performs one open/read/close cycle; the host sends at most one
// record before end-of-stream.
func recvRecord(socket string) (string, bool, error) {
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return "", false, err
	}
	defer conn.Close()

	if err := conn.(*net.UnixConn).CloseWrite(); err != nil {
		return "", false, err
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		return "", false, err
	}
	if len(data) == 0 {
		return "", true, nil
	}
	return strings.TrimSuffix(string(data), "\n"), false, nil
}
