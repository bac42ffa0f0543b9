package domain

import "time"

// RoleAssignment grants one role in one organizational unit. Assignments
// are created and removed by the user-management layer; the auth core only
// reads them and embeds them verbatim into access-token claims.
type RoleAssignment struct {
	AccountID          int64
	OrganizationalUnit int64
	Role               string
	CreatedAt          time.Time
}
