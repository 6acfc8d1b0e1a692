package wire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/leshachaplin/tracklog/internal/domain"
)

// FormKey is the urlencoded form field carrying the base64 payload.
const FormKey = "data"

type Encoder struct {
	token string
}

func NewEncoder(token string) *Encoder {
	return &Encoder{token: token}
}

// EventEnvelope wraps ev for the track endpoint. The event properties are
// laid over the reserved keys and mp_lib is always the fallback marker.
func (e *Encoder) EventEnvelope(ev domain.Event, distinctID string) EventEnvelope {
	props := domain.Properties{
		PropToken:      e.token,
		PropDistinctID: distinctID,
		PropTime:       ev.Time.Unix(),
		PropInsertID:   ev.InsertID,
	}.Merge(ev.Properties)
	props[PropLib] = LibMarker

	return EventEnvelope{
		Event:      ev.Name,
		Properties: props,
	}
}

func (e *Encoder) ProfileEnvelope(update domain.ProfileUpdate) ProfileEnvelope {
	set := update.Properties.Clone()
	if name, ok := set["name"]; ok {
		set["$name"] = name
	}
	if email, ok := set["email"]; ok {
		set["$email"] = email
	}

	return ProfileEnvelope{
		Token:      e.token,
		DistinctID: update.DistinctID,
		Set:        set,
	}
}

// EncodeEvents returns the urlencoded request body for the track endpoint.
func (e *Encoder) EncodeEvents(envelopes ...EventEnvelope) ([]byte, error) {
	return encodeForm(envelopes)
}

// EncodeProfile returns the urlencoded request body for the engage endpoint.
func (e *Encoder) EncodeProfile(envelope ProfileEnvelope) ([]byte, error) {
	return encodeForm(envelope)
}

func encodeForm(payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	form := url.Values{}
	form.Set(FormKey, base64.StdEncoding.EncodeToString(b))
	return []byte(form.Encode()), nil
}
