package auth

// Known OAuth scopes used by the carbon service.
const (
	ScopeEmissionsWrite = "emissions:write"
	ScopeEmissionsRead  = "emissions:read"
	ScopeCatalogWrite   = "catalog:write"
)
