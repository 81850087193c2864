package model

import (
	"sort"
	"time"
)

// Chat represents a conversation between participants.
type Chat struct {
	ID           string    `json:"_id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PairKey returns an order-independent key for a private chat between two users.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + ":" + ids[1]
}
