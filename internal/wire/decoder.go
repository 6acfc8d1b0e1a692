package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingData = errors.New("missing data field")
	ErrRejected    = errors.New("rejected by backend")
)

// DecodeEvents decodes the data field of a track request. Both a JSON array
// and a single JSON object are accepted.
func DecodeEvents(data string) ([]EventEnvelope, error) {
	raw, err := decodeData(data)
	if err != nil {
		return nil, err
	}

	if raw[0] == '{' {
		var single EventEnvelope
		if err = json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		return []EventEnvelope{single}, nil
	}

	var envelopes []EventEnvelope
	if err = json.Unmarshal(raw, &envelopes); err != nil {
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	return envelopes, nil
}

// DecodeProfiles decodes the data field of an engage request.
func DecodeProfiles(data string) ([]ProfileEnvelope, error) {
	raw, err := decodeData(data)
	if err != nil {
		return nil, err
	}

	if raw[0] == '[' {
		var envelopes []ProfileEnvelope
		if err = json.Unmarshal(raw, &envelopes); err != nil {
			return nil, fmt.Errorf("unmarshal profiles: %w", err)
		}
		return envelopes, nil
	}

	var single ProfileEnvelope
	if err = json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return []ProfileEnvelope{single}, nil
}

func decodeData(data string) ([]byte, error) {
	if data == "" {
		return nil, ErrMissingData
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		// unpadded payloads
		if raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "=")); err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrMissingData
	}
	return raw, nil
}

// Response is the verbose reply of both endpoints.
type Response struct {
	Status int     `json:"status"`
	Error  *string `json:"error"`
}

// ParseResponse checks a backend reply. Plain "1"/"0" bodies are accepted as
// well as the verbose JSON form.
func ParseResponse(body []byte) error {
	body = bytes.TrimSpace(body)
	switch string(body) {
	case "1":
		return nil
	case "0":
		return ErrRejected
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status == 1 {
		return nil
	}
	if resp.Error != nil {
		return fmt.Errorf("%w: %s", ErrRejected, *resp.Error)
	}
	return ErrRejected
}
