package ticket

import (
	"bytes"
	"encoding/json"
)

// Record is one row of ticket data as read from a dataset. Values are kept as the
// loader produced them and are only turned into text by Build.
type Record struct {
	ID            any
	Channel       any
	CustomerName  any
	Subject       any
	FullMessage   any
	SentimentName any
}

// Payload is the JSON body posted to the ticket intake endpoint
type Payload struct {
	ExternalID    string     `json:"external_id"`
	SourceChannel string     `json:"source_channel"`
	Customer      Customer   `json:"customer"`
	Content       Content    `json:"content"`
	AIAnalysis    AIAnalysis `json:"ai_analysis"`
}

type Customer struct {
	Name string `json:"name"`
}

type Content struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type AIAnalysis struct {
	Sentiment string `json:"sentiment"`
}

// Build maps a record to its wire payload. Every field goes through Text.
func Build(r Record) Payload {
	return Payload{
		ExternalID:    Text(r.ID),
		SourceChannel: Text(r.Channel),
		Customer: Customer{
			Name: Text(r.CustomerName),
		},
		Content: Content{
			Subject: Text(r.Subject),
			Body:    Text(r.FullMessage),
		},
		AIAnalysis: AIAnalysis{
			Sentiment: Text(r.SentimentName),
		},
	}
}

// JSON encodes the payload exactly as it goes over the wire: UTF-8, with non-ASCII
// characters and HTML-sensitive runes left unescaped, no trailing newline.
func (p Payload) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Indent renders the payload with two-space indentation for display
func (p Payload) Indent() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
