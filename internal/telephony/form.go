package telephony

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Typed views over provider webhook forms. Parsing fails closed: a request
// missing a required field is rejected before any domain logic runs, never
// defaulted to an empty string.

type IncomingCallForm struct {
	CallSid string
	From    string
	To      string
}

type DigitInputForm struct {
	CallSid string
	From    string
	To      string
	Digits  string
}

type CallStatusForm struct {
	CallSid         string
	To              string
	CallStatus      string
	DurationSeconds int // -1 when the provider sent no duration
}

type RecordingForm struct {
	CallSid      string
	RecordingURL string
}

type TranscriptionForm struct {
	CallSid        string
	TranscriptText string
}

func ParseIncomingCall(form url.Values) (IncomingCallForm, error) {
	if err := requireFields(form, "CallSid", "From", "To"); err != nil {
		return IncomingCallForm{}, err
	}
	return IncomingCallForm{
		CallSid: form.Get("CallSid"),
		From:    form.Get("From"),
		To:      form.Get("To"),
	}, nil
}

func ParseDigitInput(form url.Values) (DigitInputForm, error) {
	if err := requireFields(form, "CallSid", "From", "To", "Digits"); err != nil {
		return DigitInputForm{}, err
	}
	return DigitInputForm{
		CallSid: form.Get("CallSid"),
		From:    form.Get("From"),
		To:      form.Get("To"),
		Digits:  form.Get("Digits"),
	}, nil
}

func ParseCallStatus(form url.Values) (CallStatusForm, error) {
	if err := requireFields(form, "CallSid", "To", "CallStatus"); err != nil {
		return CallStatusForm{}, err
	}
	out := CallStatusForm{
		CallSid:         form.Get("CallSid"),
		To:              form.Get("To"),
		CallStatus:      form.Get("CallStatus"),
		DurationSeconds: -1,
	}
	if raw := form.Get("CallDuration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return CallStatusForm{}, fmt.Errorf("field CallDuration is not a number: %q", raw)
		}
		out.DurationSeconds = n
	}
	return out, nil
}

func ParseRecording(form url.Values) (RecordingForm, error) {
	if err := requireFields(form, "CallSid", "RecordingUrl"); err != nil {
		return RecordingForm{}, err
	}
	return RecordingForm{
		CallSid:      form.Get("CallSid"),
		RecordingURL: form.Get("RecordingUrl"),
	}, nil
}

func ParseTranscription(form url.Values) (TranscriptionForm, error) {
	if err := requireFields(form, "CallSid", "TranscriptionText"); err != nil {
		return TranscriptionForm{}, err
	}
	return TranscriptionForm{
		CallSid:        form.Get("CallSid"),
		TranscriptText: form.Get("TranscriptionText"),
	}, nil
}

func requireFields(form url.Values, names ...string) error {
	var missing []string
	for _, name := range names {
		if form.Get(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
