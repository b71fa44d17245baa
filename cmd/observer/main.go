// Command smartbin-observer tails the server's broadcast channel and prints
// every frame, for verifying a deployment end to end.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/websocket"
)

func main() {
	url := flag.String("url", "ws://localhost:3000/ws", "websocket endpoint")
	origin := flag.String("origin", "http://localhost/", "handshake origin")
	event := flag.String("event", "", "only print frames with this event name")
	flag.Parse()

	conn, err := websocket.Dial(*url, "", *origin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *url, err)
		os.Exit(1)
	}
	defer conn.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		conn.Close()
	}()

	type frame struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}

	enc := json.NewEncoder(os.Stdout)
	for {
		var f frame
		if err := websocket.JSON.Receive(conn, &f); err != nil {
			fmt.Fprintf(os.Stderr, "receive: %v\n", err)
			os.Exit(1)
		}
		if *event != "" && f.Event != *event {
			continue
		}
		if err := enc.Encode(f); err != nil {
			fmt.Fprintf(os.Stderr, "encode: %v\n", err)
			os.Exit(1)
		}
	}
}
