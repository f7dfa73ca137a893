package rbac

const (
	RoleGrader = "grader"
	RoleEditor = "editor"
)

const (
	PermFeedbackView = "feedback:view"
	PermFeedbackEdit = "feedback:edit"
	PermSiteView     = "site:view"
	PermSiteEdit     = "site:edit"
)

// RolePermissions is the default policy. Graders browse and copy snippets;
// editors maintain the bank and the site lock.
var RolePermissions = map[string][]string{
	RoleGrader: {
		PermFeedbackView,
		PermSiteView,
	},
	RoleEditor: {
		"feedback:*",
		"site:*",
	},
}
