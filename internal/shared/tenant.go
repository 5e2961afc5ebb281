package shared

import "context"

// TenantContext scopes every data access to one company. It is passed as
// an explicit value so services and repositories stay free of ambient
// tenancy state.
type TenantContext struct {
	CompanyID int64
}

// Valid reports whether the tenant context identifies a company.
func (t TenantContext) Valid() bool {
	return t.CompanyID > 0
}

type tenantContextKey struct{}

// ContextWithTenant stores the tenant context in ctx.
func ContextWithTenant(ctx context.Context, tenant TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenant)
}

// TenantFromContext extracts the tenant context from ctx. The zero value
// is returned when no tenant has been resolved.
func TenantFromContext(ctx context.Context) TenantContext {
	tenant, _ := ctx.Value(tenantContextKey{}).(TenantContext)
	return tenant
}
