// Package auth holds the single authorization policy table consulted by
// every API handler: pure decisions over (role, action), with no hidden
// state, plus the row-level scope a role gets on achievement listings.
package auth

// Action names a guarded operation, grouped as "resource:verb".
type Action string

const (
	ActionListUsers   Action = "users:list"
	ActionCreateUser  Action = "users:create"
	ActionSetUserRole Action = "users:set-role"

	ActionListAchievements   Action = "achievements:list"
	ActionListPending        Action = "achievements:list-pending"
	ActionCreateAchievement  Action = "achievements:create"
	ActionCreateForAnyone    Action = "achievements:create-on-behalf"
	ActionReviewAchievement  Action = "achievements:review"
	ActionViewStats          Action = "achievements:stats"
	ActionSearchAchievements Action = "achievements:search"
)

// Role names duplicated here to keep the policy table free of domain
// package imports; values must match core/user.
const (
	roleTeacher = "teacher"
	roleHod     = "hod"
	roleAdmin   = "admin"
	roleStudent = "student"

	// RoleAnonymous is the unauthenticated caller class.
	RoleAnonymous = ""
)

// policy is the closed set of rules; any (role, action) pair absent from
// it is denied.
var policy = map[Action][]string{
	ActionListUsers:   {roleHod, roleAdmin},
	ActionCreateUser:  {roleAdmin},
	ActionSetUserRole: {roleAdmin},

	ActionListAchievements:   {roleTeacher, roleHod, roleAdmin},
	ActionListPending:        {roleHod, roleAdmin},
	ActionCreateAchievement:  {roleTeacher, roleHod},
	ActionCreateForAnyone:    {roleHod},
	ActionReviewAchievement:  {roleHod, roleAdmin},
	ActionViewStats:          {roleAdmin},
	ActionSearchAchievements: {roleTeacher, roleHod, roleAdmin, roleStudent, RoleAnonymous},
}

// Allowed reports whether callers with the given role may perform action.
func Allowed(role string, action Action) bool {
	for _, r := range policy[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Scope narrows which achievement rows a role may read.
type Scope int

const (
	// ScopeNone denies all rows.
	ScopeNone Scope = iota
	// ScopeOwn limits rows to the caller's own teacher identifier.
	ScopeOwn
	// ScopeAll imposes no row filter.
	ScopeAll
	// ScopeApprovedOnly limits rows to approved records (public view).
	ScopeApprovedOnly
)

// ListScope returns the row-level scope a role gets on achievement lists.
func ListScope(role string) Scope {
	switch role {
	case roleHod, roleAdmin:
		return ScopeAll
	case roleTeacher:
		return ScopeOwn
	case roleStudent, RoleAnonymous:
		return ScopeApprovedOnly
	default:
		return ScopeNone
	}
}
