package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/vango-dev/kinetic/internal/config"
	"github.com/vango-dev/kinetic/pkg/host/memhost"
	"github.com/vango-dev/kinetic/pkg/host/wirehost"
	"github.com/vango-dev/kinetic/pkg/protocol"
)

func watchCmd(cfg func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [url]",
		Short: "Connect to a server and mirror its tree",
		Long: `Connect to a kinetic server, apply its patches to a local tree and
print the tree after every update. Elements are labelled with their node
id; drive their handlers from stdin:

  click <id>            send a click event
  input <id> <value>    send an input event
  tree                  print the tree again
  quit                  disconnect

The URL defaults to the configured server address.

Examples:
  kinetic watch
  kinetic watch ws://localhost:9000/ws`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := "ws://" + cfg().Address() + "/ws"
			if len(args) == 1 {
				url = args[0]
			}
			return runWatch(url, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	return cmd
}

type watcher struct {
	conn *websocket.Conn
	out  io.Writer

	mu     sync.Mutex
	mirror *wirehost.Mirror
	frames int
	bytes  uint64
	seq    uint64
}

func runWatch(url string, in io.Reader, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer conn.Close()

	mh := memhost.New()
	w := &watcher{conn: conn, out: out, mirror: wirehost.NewMirror(mh, mh.Root("app"))}
	if out == os.Stdout {
		success("connected to %s", url)
	}

	readErr := make(chan error, 1)
	go func() { readErr <- w.readLoop() }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := w.command(line)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
			}
			if quit {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
		}
	}
}

func (w *watcher) readLoop() error {
	for {
		_, msg, err := w.conn.ReadMessage()
		if err != nil {
			return err
		}
		f, err := protocol.DecodeFrame(msg)
		if err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}

		switch f.Type {
		case protocol.FramePatches:
			if err := w.apply(f, len(msg)); err != nil {
				return err
			}
		case protocol.FrameError:
			em, err := protocol.DecodeErrorMessage(f.Payload)
			if err != nil {
				return fmt.Errorf("decode error frame: %w", err)
			}
			fmt.Fprintf(w.out, "! server: %s\n", em.Error())
		}
	}
}

func (w *watcher) apply(f *protocol.Frame, size int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mirror.Apply(f); err != nil {
		return err
	}
	w.frames++
	w.bytes += uint64(size)
	if f.Flags.Has(protocol.FlagFinal) {
		w.seq = w.mirror.Seq()
		w.printLocked()
	}
	return nil
}

func (w *watcher) printLocked() {
	fmt.Fprintf(w.out, "\n▸ seq %d · %s frames · %s\n%s\n",
		w.seq, humanize.Comma(int64(w.frames)), humanize.Bytes(w.bytes),
		renderTree(w.mirror.Root(), w.mirror.ID))
}

// command runs one stdin line and reports whether the session should end.
func (w *watcher) command(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case "quit", "exit":
		return true, nil
	case "tree":
		w.mu.Lock()
		w.printLocked()
		w.mu.Unlock()
		return false, nil
	case "click":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: click <id>")
		}
		return false, w.send(fields[1], "click", "")
	case "input":
		if len(fields) < 3 {
			return false, fmt.Errorf("usage: input <id> <value>")
		}
		return false, w.send(fields[1], "input", strings.Join(fields[2:], " "))
	}
	return false, fmt.Errorf("unknown command %q", fields[0])
}

func (w *watcher) send(idText, typ, value string) error {
	id, err := strconv.ParseUint(idText, 10, 32)
	if err != nil {
		return fmt.Errorf("bad node id %q", idText)
	}
	w.mu.Lock()
	seq := w.seq
	w.mu.Unlock()
	ev := &protocol.Event{Seq: seq, Node: uint32(id), Type: typ, Value: value}
	f := protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(ev))
	return w.conn.WriteMessage(websocket.BinaryMessage, f.Encode())
}
