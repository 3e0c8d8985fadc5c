package telephony

import (
	"strings"
	"testing"
)

// Providers parse these documents strictly; the rendering is asserted
// byte for byte.
func TestRender_MenuDocument(t *testing.T) {
	resp := NewResponse(
		Gather{
			NumDigits: 1,
			Timeout:   10,
			Action:    "/webhooks/voice/ivr-input",
			Method:    "POST",
			Verbs: []any{
				Say{Language: "en-US", Text: "Welcome. For sales, press 1."},
			},
		},
		Redirect{Method: "POST", URL: "/webhooks/voice/incoming-call"},
	)

	got, err := Render(resp)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Gather numDigits="1" timeout="10" action="/webhooks/voice/ivr-input" method="POST">
    <Say language="en-US">Welcome. For sales, press 1.</Say>
  </Gather>
  <Redirect method="POST">/webhooks/voice/incoming-call</Redirect>
</Response>
`
	if string(got) != want {
		t.Errorf("rendered document mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_TransferDocument(t *testing.T) {
	resp := NewResponse(
		Say{Language: "en-US", Text: "Connecting you to the next available agent."},
		Dial{Timeout: 30, Number: "+15550000001"},
		Say{Language: "en-US", Text: "The agent did not answer. Please leave a message after the beep."},
		Record{
			MaxLength:          120,
			PlayBeep:           true,
			Transcribe:         true,
			TranscribeCallback: "/webhooks/voice/transcription-complete",
			Action:             "/webhooks/voice/recording-status",
			Method:             "POST",
		},
		Hangup{},
	)

	got, err := Render(resp)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say language="en-US">Connecting you to the next available agent.</Say>
  <Dial timeout="30">
    <Number>+15550000001</Number>
  </Dial>
  <Say language="en-US">The agent did not answer. Please leave a message after the beep.</Say>
  <Record maxLength="120" playBeep="true" transcribe="true" transcribeCallback="/webhooks/voice/transcription-complete" action="/webhooks/voice/recording-status" method="POST"></Record>
  <Hangup></Hangup>
</Response>
`
	if string(got) != want {
		t.Errorf("rendered document mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_EmptyResponse(t *testing.T) {
	got, err := Render(NewResponse())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `<?xml version="1.0" encoding="UTF-8"?>
<Response></Response>
`
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRender_EscapesCallerControlledText(t *testing.T) {
	got, err := Render(NewResponse(Say{Text: `Hello <world> & "friends"`}))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(got)
	if strings.Contains(s, "<world>") {
		t.Error("angle brackets must be escaped")
	}
	if !strings.Contains(s, "&lt;world&gt; &amp;") {
		t.Errorf("expected escaped entities, got:\n%s", s)
	}
}
