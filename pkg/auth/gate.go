// Package auth decides which senders and chats may use the bridge.
package auth

import (
	"strconv"
	"strings"

	"tgbridge/pkg/telegram"
)

// Policy is the static allow-list configuration. An empty dimension allows
// everything on that dimension; both configured dimensions must pass.
type Policy struct {
	chatIDs   map[int64]struct{}
	usernames map[string]struct{}
}

// NewPolicy builds a policy from allow-lists. Usernames are stripped of a
// leading @ and kept case-sensitive; blank entries are dropped.
func NewPolicy(chatIDs []int64, usernames []string) *Policy {
	p := &Policy{}

	if len(chatIDs) > 0 {
		p.chatIDs = make(map[int64]struct{}, len(chatIDs))
		for _, id := range chatIDs {
			p.chatIDs[id] = struct{}{}
		}
	}

	for _, name := range usernames {
		name = strings.TrimPrefix(strings.TrimSpace(name), "@")
		if name == "" {
			continue
		}
		if p.usernames == nil {
			p.usernames = make(map[string]struct{}, len(usernames))
		}
		p.usernames[name] = struct{}{}
	}

	return p
}

// Allowed reports whether the sender/chat pair passes both allow-lists.
// Fails closed: a configured username list denies senders without a username.
func (p *Policy) Allowed(sender *telegram.User, chatID int64) bool {
	if len(p.chatIDs) > 0 {
		if _, ok := p.chatIDs[chatID]; !ok {
			return false
		}
	}

	if len(p.usernames) > 0 {
		if sender == nil || sender.Username == "" {
			return false
		}
		if _, ok := p.usernames[sender.Username]; !ok {
			return false
		}
	}

	return true
}

// Open reports whether the policy restricts nothing.
func (p *Policy) Open() bool {
	return len(p.chatIDs) == 0 && len(p.usernames) == 0
}

// ParseChatIDs parses a comma-separated chat id list, dropping blanks and
// non-numeric entries. Used for env-variable overrides.
func ParseChatIDs(input string) []int64 {
	var ids []int64
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids
}

// ParseUsernames parses a comma-separated username list, dropping blanks.
func ParseUsernames(input string) []string {
	var names []string
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		names = append(names, part)
	}

	return names
}
