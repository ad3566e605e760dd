package drops

import (
	"fmt"
	"unicode/utf8"

	"github.com/crptomonkeys/greenwiz/types"
)

const (
	// MaxMemoLength is the chain's memo limit, including the appended link text.
	MaxMemoLength = 256
	// DefaultLinkMemo is used when a claim link is created without a memo.
	DefaultLinkMemo = "NFT Tip Bot reward claimlink."

	maxUserLength = 50
)

// TruncateUser shortens a display name to what fits in a memo.
func TruncateUser(user string) string {
	if utf8.RuneCountInString(user) <= maxUserLength {
		return user
	}
	return string([]rune(user)[:maxUserLength])
}

// Memo builds the memo of a drop to user. The link append text of the
// collection still has to fit after it.
func Memo(user, reason, collection, linkAppend string) (string, error) {
	user = TruncateUser(user)
	memo := fmt.Sprintf("Random %s reward for (%s).", collection, user)
	if reason != "" {
		memo = fmt.Sprintf("%s (%s)", reason, user)
	}
	length := len(memo) + len(linkAppend) + 1
	if length >= MaxMemoLength {
		return "", fmt.Errorf("%w: memo must be less than %d characters long, with the appended text it is %d",
			types.ErrInvalidMemo, MaxMemoLength, length)
	}
	return memo, nil
}

// LinkMemo is the memo stored on a claim link.
func LinkMemo(memo, linkAppend string) string {
	if memo == "" {
		memo = DefaultLinkMemo
	}
	if linkAppend != "" {
		memo += " " + linkAppend
	}
	return memo
}
