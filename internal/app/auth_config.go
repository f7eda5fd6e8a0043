package app

import (
	"github.com/connecthq/connect/internal/auth"
)

// TokenServiceConfig converts AuthConfig into the parameters expected by the token service.
func (c AuthConfig) TokenServiceConfig() auth.TokenConfig {
	accessTTL := c.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = auth.DefaultAccessTokenTTL
	}

	refreshTTL := c.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = auth.DefaultRefreshTokenTTL
	}

	return auth.TokenConfig{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		Issuer:        c.Issuer,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}
