package models

import (
	"time"
)

// Thread is a conversation container linking one buyer and one seller around
// a single listing. The participant set is fixed at creation.
type Thread struct {
	ID            string    `json:"id"`
	ListingID     string    `json:"listingId"`
	BuyerID       string    `json:"buyerId"`
	SellerID      string    `json:"sellerId"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// IsParticipant reports whether userID is the thread's buyer or seller.
func (t *Thread) IsParticipant(userID string) bool {
	return userID != "" && (t.BuyerID == userID || t.SellerID == userID)
}

// OtherParticipant returns the participant opposite to userID, or "" if
// userID is not a participant.
func (t *Thread) OtherParticipant(userID string) string {
	switch userID {
	case t.BuyerID:
		return t.SellerID
	case t.SellerID:
		return t.BuyerID
	}
	return ""
}

// ThreadSummary is an inbox row: the thread plus the listing title it is about.
type ThreadSummary struct {
	Thread
	ListingTitle string `json:"listingTitle"`
}
