// Package identity resolves which of the two chat participants this process is.
package identity

import (
	"fmt"
	"strconv"

	"pubsubchat/internal"

	"github.com/samber/lo"
)

type Identity int

const (
	User1 Identity = 1
	User2 Identity = 2
)

var validTokens = []string{"1", "2"}

// Parse accepts only the tokens "1" and "2".
func Parse(token string) (Identity, error) {
	if !lo.Contains(validTokens, token) {
		return 0, fmt.Errorf("%w: %q, want 1 or 2", internal.ErrInvalidIdentity, token)
	}
	n, _ := strconv.Atoi(token)
	return Identity(n), nil
}

// Peer is the other participant.
func (i Identity) Peer() Identity {
	return 3 - i
}

// Tag is the sender prefix written into every payload, e.g. "user1".
func (i Identity) Tag() string {
	return "user" + i.String()
}

// SubscriptionName is the subscription this identity reads from. It is named
// after the peer, so user1 reads "user2-subscription" and vice versa.
func (i Identity) SubscriptionName() string {
	return "user" + i.Peer().String() + "-subscription"
}

func (i Identity) String() string {
	return strconv.Itoa(int(i))
}
