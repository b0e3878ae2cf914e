// clockcam-watch follows a running clockcam dashboard and prints every
// verdict and notice as it arrives.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/clockcam/pkg/web"
)

// event is the union of web.VerdictEvent and web.NoticeEvent.
type event struct {
	web.VerdictEvent
	Notice string `json:"notice"`
}

func main() {
	addr := flag.String("addr", "localhost:8080", "clockcam dashboard address")
	asJSON := flag.Bool("json", false, "Print raw JSON events")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/verdict"}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		log.Fatalf("❌ Failed to connect to %s: %v", u.String(), err)
	}
	defer conn.Close()

	fmt.Fprintf(os.Stderr, "👀 Watching %s (Ctrl+C to stop)\n", u.String())

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			log.Fatalf("❌ Connection lost: %v", err)
		}

		if *asJSON {
			fmt.Println(string(data))
			continue
		}

		var ev event
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Printf("⚠️  Bad event: %v", err)
			continue
		}
		fmt.Println(format(ev))
	}
}

func format(ev event) string {
	ts := ev.Time.Local().Format("15:04:05")
	if ev.Notice != "" {
		return fmt.Sprintf("%s ⚠️  %s", ts, ev.Notice)
	}
	mark := "❌"
	if ev.Positive {
		mark = "✅"
	}
	return fmt.Sprintf("%s %s %s %v", ts, mark, ev.Text, ev.Labels)
}
