// Package wire encodes chat lines as "<sender-tag>: <text>".
package wire

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"pubsubchat/internal"
)

// Separator splits the sender tag from the text. Only its first occurrence counts.
const Separator = ": "

type ChatMessage struct {
	Sender string
	Text   string
}

func Encode(sender, text string) []byte {
	return []byte(sender + Separator + text)
}

func Decode(data []byte) (ChatMessage, error) {
	if !utf8.Valid(data) {
		return ChatMessage{}, fmt.Errorf("%w: payload is not valid UTF-8", internal.ErrDecode)
	}

	sender, text, found := strings.Cut(string(data), Separator)
	if !found {
		return ChatMessage{}, fmt.Errorf("%w: missing %q separator", internal.ErrDecode, Separator)
	}
	if sender == "" {
		return ChatMessage{}, fmt.Errorf("%w: empty sender tag", internal.ErrDecode)
	}

	return ChatMessage{Sender: sender, Text: text}, nil
}
