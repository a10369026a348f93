package models

import (
	"fmt"
	"strconv"
)

// MemberKey identifies a user inside a community (Telegram group).
type MemberKey struct {
	CommunityID int64
	UserID      int64
}

func (k MemberKey) String() string {
	return fmt.Sprintf("%d/%d", k.CommunityID, k.UserID)
}

// FormatID renders an identifier the way the JSON stores key their maps.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID is the inverse of FormatID.
func ParseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
