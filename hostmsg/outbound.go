package hostmsg

import (
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"

	"github.com/antonio59/standard-notes-kanban/domain"
)

// isoLayout matches the millisecond ISO-8601 form the host writes.
const isoLayout = "2006-01-02T15:04:05.000Z"

// SavedTag is the host-bound form of a tag.
type SavedTag struct {
	UUID        string `json:"uuid,omitempty"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
}

// SavedItem is the host-bound form of a note.
type SavedItem struct {
	UUID        string          `json:"uuid"`
	ContentType string          `json:"content_type"`
	Content     json.RawMessage `json:"content,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	UpdatedAt   string          `json:"updated_at"`
	Tags        []SavedTag      `json:"tags"`
}

type requestItemsData struct {
	ContentTypes []string `json:"contentTypes"`
}

type saveItemsData struct {
	Items []SavedItem `json:"items"`
}

// FormatTime renders t the way the host stores timestamps.
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// EncodeNote converts a note to its host-bound form with updated_at set to now.
// created_at goes back exactly as the host sent it.
func EncodeNote(n domain.Note, now time.Time) SavedItem {
	item := SavedItem{
		UUID:        n.ID,
		ContentType: n.ContentType,
		Content:     n.Content,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   FormatTime(now),
		Tags:        make([]SavedTag, 0, len(n.Tags)),
	}
	if item.ContentType == "" {
		item.ContentType = ContentTypeNote
	}
	for _, t := range n.Tags {
		item.Tags = append(item.Tags, SavedTag{UUID: t.ID, Title: t.Title, ContentType: ContentTypeTag})
	}
	return item
}

func encode(action, messageID string, data any) ([]byte, error) {
	raw, err := sonic.ConfigStd.Marshal(data)
	if err != nil {
		return nil, err
	}
	return sonic.ConfigStd.Marshal(Envelope{Action: action, Data: raw, MessageID: messageID})
}

// ComponentReady announces the board to the host.
func ComponentReady() ([]byte, error) {
	return encode(ActionComponentReady, "", struct{}{})
}

// RequestComponentData is the unprompted fallback request sent when the
// handshake stalls.
func RequestComponentData() ([]byte, error) {
	return encode(ActionRequestComponentData, "", struct{}{})
}

// RequestItems asks the host for items of the given content types.
func RequestItems(messageID string, contentTypes []string) ([]byte, error) {
	if contentTypes == nil {
		contentTypes = []string{}
	}
	return encode(ActionRequestItems, messageID, requestItemsData{ContentTypes: contentTypes})
}

// SaveItems asks the host to persist items.
func SaveItems(messageID string, items []SavedItem) ([]byte, error) {
	if items == nil {
		items = []SavedItem{}
	}
	return encode(ActionSaveItems, messageID, saveItemsData{Items: items})
}
