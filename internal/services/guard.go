package services

import (
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
)

// ViewerRole describes what a given user may do with a listing's contact
// surface. The API exposes it so clients can decide which controls to render.
type ViewerRole string

const (
	// ViewerUnauthenticated: no session; must sign in before messaging.
	ViewerUnauthenticated ViewerRole = "unauthenticated"
	// ViewerOwner: the listing belongs to this user.
	ViewerOwner ViewerRole = "owner"
	// ViewerParticipant: an open conversation with the seller already exists.
	ViewerParticipant ViewerRole = "participant"
	// ViewerEligible: signed in and allowed to start a conversation.
	ViewerEligible ViewerRole = "eligible"
)

// CanEditListing reports whether userID may mutate the listing. Only the
// owner may; there is no admin override.
func CanEditListing(userID string, listing *models.Listing) bool {
	return userID != "" && listing.OwnerID == userID
}

// CanMessageListing decides whether userID may open a conversation about the
// listing. A listing without an owner cannot receive messages, and sellers
// cannot message themselves.
func CanMessageListing(userID string, listing *models.Listing) error {
	if listing.OwnerID == "" {
		return ErrListingMissingOwner
	}
	if listing.OwnerID == userID {
		return ErrSelfMessage
	}
	return nil
}

// CanViewThread reports whether userID is one of the thread's two fixed
// participants. Nobody else, owner of other listings included, may read it.
func CanViewThread(userID string, thread *models.Thread) bool {
	return thread.IsParticipant(userID)
}

// RoleForListing classifies a viewer against a listing. hasThread reports
// whether the viewer already has a conversation open for it.
func RoleForListing(userID string, listing *models.Listing, hasThread bool) ViewerRole {
	if userID == "" {
		return ViewerUnauthenticated
	}
	if listing.OwnerID == userID {
		return ViewerOwner
	}
	if hasThread {
		return ViewerParticipant
	}
	return ViewerEligible
}
