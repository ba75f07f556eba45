package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// ws_listen prints the tempopitchd state stream.

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:3002/ws", "tempopitchd state stream URL")
		raw   = flag.Bool("raw", false, "Print frames as indented JSON instead of one-line summaries")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Protects concurrent writes (pings and the close frame).
	var writeMu sync.Mutex

	// The daemon pings every 20s.
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("connection closed")
				} else {
					log.Printf("read error: %v", err)
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}

			if *raw {
				fmt.Println(indent(message))
				continue
			}
			line, err := summarize(message)
			if err != nil {
				log.Printf("undecodable frame: %v", err)
				fmt.Println(string(message))
				continue
			}
			fmt.Println(line)
		}
	}()

	select {
	case <-sigc:
		log.Printf("interrupted, closing connection...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("write close error: %v", err)
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
}

// frame mirrors the daemon's {type, ts, data} envelope.
type frame struct {
	Type string          `json:"type"`
	Ts   time.Time       `json:"ts"`
	Data json.RawMessage `json:"data"`
}

type values struct {
	Tempo       float64 `json:"tempo"`
	Pitch       float64 `json:"pitch"`
	SkipSilence bool    `json:"skip_silence"`
}

type sessionView struct {
	State struct {
		Tempo        float64 `json:"tempo"`
		PitchPercent float64 `json:"pitch_percent"`
		StepSize     float64 `json:"step_size"`
		SkipSilence  bool    `json:"skip_silence"`
		Hook         bool    `json:"hook"`
		SemitoneMode bool    `json:"semitone_mode"`
	} `json:"state"`
	Labels struct {
		Tempo     string `json:"tempo"`
		Pitch     string `json:"pitch"`
		Semitones string `json:"semitones"`
	} `json:"labels"`
}

// summarize renders one frame as a single log-style line.
func summarize(message []byte) (string, error) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		return "", err
	}
	ts := f.Ts.Local().Format("15:04:05.000")

	switch f.Type {
	case "state_init":
		var d struct {
			Applied    values       `json:"applied"`
			Session    *sessionView `json:"session"`
			LastStatus string       `json:"last_status"`
			StepSize   float64      `json:"step_size"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return "", err
		}
		line := fmt.Sprintf("%s state_init tempo=%.2f pitch=%.2f skip_silence=%t step=%.2f",
			ts, d.Applied.Tempo, d.Applied.Pitch, d.Applied.SkipSilence, d.StepSize)
		if d.Session != nil {
			line += " session=open"
		} else if d.LastStatus != "" {
			line += " last=" + d.LastStatus
		}
		return line, nil

	case "parameters_changed":
		var d struct {
			values
			Speed      string `json:"speed"`
			PitchLabel string `json:"pitch_label"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s parameters speed=%s pitch=%s skip_silence=%t",
			ts, d.Speed, d.PitchLabel, d.SkipSilence), nil

	case "session_opened", "session_updated":
		var d sessionView
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s tempo=%s pitch=%s semitones=%s step=%.2f hook=%t semitone_mode=%t",
			ts, f.Type, d.Labels.Tempo, d.Labels.Pitch, d.Labels.Semitones,
			d.State.StepSize, d.State.Hook, d.State.SemitoneMode), nil

	case "session_closed":
		var d struct {
			Status string `json:"status"`
			Values values `json:"values"`
		}
		if err := json.Unmarshal(f.Data, &d); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s session_closed status=%s tempo=%.2f pitch=%.2f",
			ts, d.Status, d.Values.Tempo, d.Values.Pitch), nil

	default:
		return fmt.Sprintf("%s %s %s", ts, f.Type, string(f.Data)), nil
	}
}

func indent(message []byte) string {
	var v any
	if err := json.Unmarshal(message, &v); err != nil {
		return string(message)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(message)
	}
	return string(b)
}
