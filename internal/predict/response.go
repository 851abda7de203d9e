package predict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// BaseText is the result line shown before any prediction and after clear.
const BaseText = "Result: "

type Request struct {
	Image string `json:"image"`
}

// Confidence keeps the confidence exactly as the server sent it. Numbers
// keep their literal form and strings are unquoted, so 0.92 renders as
// "0.92" and "92.00%" as "92.00%".
type Confidence string

func (c *Confidence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Confidence(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("confidence: %w", err)
		}
		*c = Confidence(n.String())
	}
	return nil
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(string(c), 64); err == nil && json.Valid([]byte(c)) {
		return []byte(c), nil
	}
	return json.Marshal(string(c))
}

func (c Confidence) String() string {
	return string(c)
}

type Candidate struct {
	Label      string     `json:"label"`
	Confidence Confidence `json:"confidence"`
}

type Response struct {
	Prediction string      `json:"prediction,omitempty"`
	Confidence Confidence  `json:"confidence,omitempty"`
	Error      string      `json:"error,omitempty"`
	Top        []Candidate `json:"top,omitempty"`

	// Status is the HTTP status the reply arrived with.
	Status int `json:"-"`
}

// Text renders the reply for the result line. A server-reported error wins
// over any other field; a reply with no error must carry both a prediction
// and a confidence.
func (r *Response) Text() (string, error) {
	if r == nil {
		return "", ErrMalformed
	}
	if r.Error != "" {
		return "Error: " + r.Error, nil
	}
	if r.Prediction == "" || r.Confidence == "" {
		return "", fmt.Errorf("%w: missing prediction or confidence", ErrMalformed)
	}
	return fmt.Sprintf("%s%s (Confidence: %s)", BaseText, r.Prediction, r.Confidence), nil
}
