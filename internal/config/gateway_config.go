package config

import "time"

type GatewayConfig interface {
	// GetUpstreamBaseURL is the platform REST API this gateway fronts.
	GetUpstreamBaseURL() string
	// GetSessionDBPath is the bbolt file holding the persisted session.
	GetSessionDBPath() string
	// GetLoginPath is the upstream credential-login endpoint.
	GetLoginPath() string
	// GetRefreshPath is the upstream token-refresh endpoint.
	GetRefreshPath() string
	// GetLoginRoute is the gateway route actors are sent to on auth failure.
	GetLoginRoute() string
	// GetAdminHomeRoute is the admin landing page used on access mismatches.
	GetAdminHomeRoute() string
	// GetMastersCacheTTL bounds how long reference data is served from cache.
	GetMastersCacheTTL() time.Duration
}

type Gateway struct{}

var _ GatewayConfig = Gateway{}

func (Gateway) GetUpstreamBaseURL() string {
	return GetEnv("UPSTREAM_BASE_URL", "http://localhost:5000")
}

func (Gateway) GetSessionDBPath() string {
	return GetEnv("SESSION_DB_PATH", "./data/session.db")
}

func (Gateway) GetLoginPath() string {
	return GetEnv("LOGIN_PATH", "/api/auth/login")
}

func (Gateway) GetRefreshPath() string {
	return GetEnv("REFRESH_PATH", "/api/auth/refresh-token")
}

func (Gateway) GetLoginRoute() string {
	return GetEnv("LOGIN_ROUTE", "/login")
}

func (Gateway) GetAdminHomeRoute() string {
	return GetEnv("ADMIN_HOME_ROUTE", "/admin/dashboard")
}

func (Gateway) GetMastersCacheTTL() time.Duration {
	ttl, err := time.ParseDuration(GetEnv("MASTERS_CACHE_TTL", "10m"))
	if err != nil {
		return 10 * time.Minute
	}
	return ttl
}
