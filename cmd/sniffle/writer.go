package main

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"sync"

	sniffle "github.com/FDlucifer/Sniffle"
)

// frameRecord is one captured frame as an NDJSON line.
type frameRecord struct {
	Channel   uint8  `json:"channel"`
	Timestamp uint32 `json:"timestamp"`
	RSSI      int8   `json:"rssi"`
	Data      string `json:"data"`
}

// NDJSONWriter streams captured frames as newline-delimited JSON. Safe for
// use from the radio's receive path.
type NDJSONWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNDJSONWriter wraps w.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{w: w}
}

// WriteFrame writes one frame as a single NDJSON record.
func (n *NDJSONWriter) WriteFrame(f *sniffle.Frame) error {
	rec := frameRecord{
		Channel:   f.Channel,
		Timestamp: f.Timestamp,
		RSSI:      f.RSSI,
		Data:      hex.EncodeToString(f.Data),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, err := n.w.Write(b); err != nil {
		return err
	}
	_, err = n.w.Write([]byte{'\n'})
	return err
}
