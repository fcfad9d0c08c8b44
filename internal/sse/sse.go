package sse

import (
	"encoding/json"
	"fmt"
)

// Event is a single Server-Sent Event message.
type Event struct {
	Name string
	Data map[string]interface{}
}

// Format renders the event in the text/event-stream wire format.
func (e Event) Format() string {
	data, err := json.Marshal(e.Data)
	if err != nil {
		data = []byte(`{}`)
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Name, data)
}

// Progress events emitted while a generation runs.

func Queued(model string) Event {
	return Event{Name: "status", Data: map[string]interface{}{
		"status":   "queued",
		"progress": 0,
		"message":  fmt.Sprintf("Request queued for %s", model),
	}}
}

func Generating(provider, model string) Event {
	return Event{Name: "status", Data: map[string]interface{}{
		"status":   "generating",
		"progress": 20,
		"message":  fmt.Sprintf("Starting generation with %s/%s", provider, model),
	}}
}

func Processing() Event {
	return Event{Name: "status", Data: map[string]interface{}{
		"status":   "processing",
		"progress": 80,
		"message":  "Processing and saving images",
	}}
}

func Complete(urls []string, model, provider string) Event {
	return Event{Name: "complete", Data: map[string]interface{}{
		"status":     "complete",
		"progress":   100,
		"message":    fmt.Sprintf("Successfully generated %d image(s)", len(urls)),
		"image_urls": urls,
		"model":      model,
		"provider":   provider,
	}}
}

func Failure(err error) Event {
	return Event{Name: "error", Data: map[string]interface{}{
		"status":  "error",
		"message": err.Error(),
	}}
}
