package rbac

// Default policy. Admin manages content and assignments only.
var RolePermissions = map[string][]string{
	"student": {
		"test:take",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
		"assignment:view-own",
		"message:send",
		"message:view",
	},
	"teacher": {
		"test:view",
		"assignment:create",
		"student:list",
		"report:view",
		"message:send",
		"message:view",
	},
	"admin": {
		"test:create",
		"test:view",
		"question:upload",
		"assignment:create",
	},
}
