package model

import (
	"time"
)

// Contact is one platform end-user known to an owning user.
// Identity is (UserID, PlatformUserID).
type Contact struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	AccountID       string    `json:"account_id"`
	PlatformUserID  string    `json:"platform_user_id"`
	Name            string    `json:"name"`
	ProfilePic      string    `json:"profile_pic"`
	Tags            []string  `json:"tags"`
	LastInteraction time.Time `json:"last_interaction"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasTag reports whether tag is in the contact's tag set.
func (c *Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ContactFilter narrows a contact listing.
type ContactFilter struct {
	Search string
	Limit  int
	Offset int
}

// ListContactsResponse is the response for listing contacts.
type ListContactsResponse struct {
	Contacts []Contact `json:"contacts"`
	HasMore  bool      `json:"has_more"`
}

// AddTagsRequest is the request to tag a contact by hand.
type AddTagsRequest struct {
	Tags []string `json:"tags"`
}
