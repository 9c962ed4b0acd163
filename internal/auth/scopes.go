package auth

// Known OAuth scopes used by the recipe service.
const (
	ScopeRecipesRead  = "recipes:read"
	ScopeRecipesWrite = "recipes:write"
	ScopeUsersAdmin   = "users:admin"
)
