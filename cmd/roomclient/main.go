// Command roomclient is a debug wire client: it dials a running server's
// WebSocket endpoint, lets an operator type events on stdin, and prints
// every push it receives. Useful for poking at a room by hand without a
// browser.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.StringP("addr", "a", "localhost:8080", "server host:port")
	path := pflag.StringP("path", "p", "/ws", "websocket path")
	pflag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: *path}
	log.Printf("🔌 connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("❌ dial failed: %v", err)
	}
	defer conn.Close()

	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				log.Printf("❌ connection closed: %v", err)
				os.Exit(0)
			}
			fmt.Println(prettyPrint(raw))
		}
	}()

	fmt.Println("Type an event name, optionally followed by a JSON data object, e.g.:")
	fmt.Println(`  create-room {"playerName":"Alice"}`)
	fmt.Println(`  select-box {"boxNumber":3}`)
	fmt.Println("Ctrl-D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		event, data := splitEventLine(line)
		payload := map[string]interface{}{"event": event, "reqId": "cli"}
		if data != nil {
			payload["data"] = data
		}
		b, err := json.Marshal(payload)
		if err != nil {
			fmt.Println("bad input:", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Fatalf("❌ write failed: %v", err)
		}
	}
}

func splitEventLine(line string) (string, json.RawMessage) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 1 {
		return parts[0], nil
	}
	return parts[0], json.RawMessage(strings.TrimSpace(parts[1]))
}

func prettyPrint(raw []byte) string {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(b)
}
