// Package hostmsg defines the messages exchanged with the embedding note host.
package hostmsg

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

const (
	ActionComponentReady       = "componentReady"
	ActionRequestItems         = "requestItems"
	ActionSaveItems            = "saveItems"
	ActionRequestComponentData = "requestComponentData"
	ActionComponentData        = "componentData"
	ActionStreamContextItem    = "streamContextItem"
	ActionSetComponentData     = "setComponentData"
)

const (
	ContentTypeNote = "Note"
	ContentTypeTag  = "Tag"
)

// ErrEmptyMessage is returned for blank or null payloads.
var ErrEmptyMessage = errors.New("empty host message")

// Envelope is the outer shape of every message on the channel.
type Envelope struct {
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
	MessageID string          `json:"messageId,omitempty"`
}

// TagRef is a host tag reference carried on a note.
type TagRef struct {
	UUID string `json:"uuid"`
}

// Item is a raw host item. Notes and tags share the shape.
type Item struct {
	UUID        string          `json:"uuid"`
	ContentType string          `json:"content_type"`
	Content     json.RawMessage `json:"content,omitempty"`
	Title       string          `json:"title,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
	Tags        []TagRef        `json:"tags,omitempty"`
}

// ContentTitle returns content.title, or "" when content is absent or not an object.
func (it Item) ContentTitle() string {
	if len(it.Content) == 0 {
		return ""
	}
	var c struct {
		Title string `json:"title"`
	}
	if err := sonic.ConfigStd.Unmarshal(it.Content, &c); err != nil {
		return ""
	}
	return c.Title
}

// Inbound is a decoded host message. The set of implementations is closed:
// ComponentData, ChannelReady and Unknown.
type Inbound interface {
	inbound()
}

// ComponentData delivers an item collection. Found is false when the message
// carried no items in any accepted shape.
type ComponentData struct {
	Items []Item
	Found bool
}

// ChannelReady signals that the host's message channel is usable.
type ChannelReady struct {
	Action string
}

// Unknown is any message with an action the board does not handle.
type Unknown struct {
	Action string
}

func (ComponentData) inbound() {}
func (ChannelReady) inbound()  {}
func (Unknown) inbound()       {}

type itemsHolder struct {
	Items *[]Item `json:"items"`
}

type componentDataPayload struct {
	ComponentData *struct {
		StandardNotes *itemsHolder `json:"standardNotes"`
		Items         *[]Item      `json:"items"`
	} `json:"componentData"`
	Items *[]Item `json:"items"`
}

// Decode parses an inbound payload.
func Decode(payload []byte) (Inbound, error) {
	if len(payload) == 0 || string(payload) == "null" {
		return nil, ErrEmptyMessage
	}
	var env Envelope
	if err := sonic.ConfigStd.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode host message: %w", err)
	}

	switch env.Action {
	case ActionComponentData:
		return decodeComponentData(env.Data)
	case ActionStreamContextItem, ActionSetComponentData:
		return ChannelReady{Action: env.Action}, nil
	default:
		return Unknown{Action: env.Action}, nil
	}
}

// decodeComponentData accepts items nested under componentData.standardNotes,
// under componentData, or directly under data.
func decodeComponentData(data json.RawMessage) (Inbound, error) {
	if len(data) == 0 || string(data) == "null" {
		return ComponentData{}, nil
	}
	var p componentDataPayload
	if err := sonic.ConfigStd.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode componentData: %w", err)
	}

	var items *[]Item
	if cd := p.ComponentData; cd != nil {
		if cd.StandardNotes != nil {
			items = cd.StandardNotes.Items
		} else {
			items = cd.Items
		}
	} else {
		items = p.Items
	}
	if items == nil {
		return ComponentData{}, nil
	}
	return ComponentData{Items: *items, Found: true}, nil
}
