package social

import (
	"whispervault/internal/config"
	"whispervault/internal/models"

	"github.com/redis/go-redis/v9"
)

// Registry resolves platform codes to their publishers.
type Registry map[string]Publisher

// NewRegistry builds publishers for every supported platform from config.
func NewRegistry(cfg *config.Config, rdb *redis.Client) Registry {
	return Registry{
		models.PlatformFacebook:  NewClient(models.PlatformFacebook, cfg.FacebookEndpoint, cfg.SocialAPIKey, rdb),
		models.PlatformInstagram: NewClient(models.PlatformInstagram, cfg.InstagramEndpoint, cfg.SocialAPIKey, rdb),
		models.PlatformX:         NewClient(models.PlatformX, cfg.XEndpoint, cfg.SocialAPIKey, rdb),
	}
}

// Lookup returns the publisher for a platform code.
func (r Registry) Lookup(platform string) (Publisher, bool) {
	p, ok := r[platform]
	return p, ok
}
