package tenant

import "fmt"

// Context identifies who is acting and against which branch. It is passed
// explicitly into every workflow call; there is no ambient tenant state.
type Context struct {
	UserID   string
	BranchID string
}

func (c Context) Valid() bool {
	return c.UserID != "" && c.BranchID != ""
}

// DraftKey derives the draft-cache key for this tenant/branch. One draft
// exists per key; concurrent writers are last-write-wins.
func (c Context) DraftKey() string {
	return fmt.Sprintf("draft:product:%s:%s", c.UserID, c.BranchID)
}
