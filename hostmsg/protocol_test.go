package hostmsg

import (
	"errors"
	"testing"
)

func TestDecodeComponentDataShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "nested standardNotes", payload: `{"action":"componentData","data":{"componentData":{"standardNotes":{"items":[{"uuid":"n1","content_type":"Note"}]}}}}`},
		{name: "componentData items", payload: `{"action":"componentData","data":{"componentData":{"items":[{"uuid":"n1","content_type":"Note"}]}}}`},
		{name: "direct items", payload: `{"action":"componentData","data":{"items":[{"uuid":"n1","content_type":"Note"}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.payload))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			cd, ok := msg.(ComponentData)
			if !ok {
				t.Fatalf("expected ComponentData, got %T", msg)
			}
			if !cd.Found || len(cd.Items) != 1 || cd.Items[0].UUID != "n1" {
				t.Fatalf("unexpected items %+v", cd)
			}
		})
	}
}

func TestDecodeComponentDataWithoutItems(t *testing.T) {
	msg, err := Decode([]byte(`{"action":"componentData","data":{"componentData":{"other":1}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cd := msg.(ComponentData); cd.Found {
		t.Fatalf("expected no items, got %+v", cd)
	}
}

func TestDecodeEmptyItemsIsFound(t *testing.T) {
	msg, err := Decode([]byte(`{"action":"componentData","data":{"items":[]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cd := msg.(ComponentData); !cd.Found || len(cd.Items) != 0 {
		t.Fatalf("expected found empty collection, got %+v", cd)
	}
}

func TestDecodeChannelReadyActions(t *testing.T) {
	for _, action := range []string{ActionStreamContextItem, ActionSetComponentData} {
		msg, err := Decode([]byte(`{"action":"` + action + `","data":{}}`))
		if err != nil {
			t.Fatalf("decode %s: %v", action, err)
		}
		ready, ok := msg.(ChannelReady)
		if !ok || ready.Action != action {
			t.Fatalf("expected ChannelReady for %s, got %#v", action, msg)
		}
	}
}

func TestDecodeUnknownAndInvalid(t *testing.T) {
	msg, err := Decode([]byte(`{"action":"themes","data":{}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u, ok := msg.(Unknown); !ok || u.Action != "themes" {
		t.Fatalf("expected Unknown, got %#v", msg)
	}

	if _, err := Decode(nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if _, err := Decode([]byte("null")); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage for null, got %v", err)
	}
	if _, err := Decode([]byte("{bad")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
