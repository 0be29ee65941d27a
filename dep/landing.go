package dep

import (
	"fmt"
	"phishsim/config"
	"phishsim/tracker"
	"strings"
)

// landingResolver builds the post-click destination for a message from its
// landing slug, falling back to the configured default slug. The landing
// page itself is served elsewhere; this core only needs its URL.
type landingResolver struct {
	baseURL     string
	defaultSlug string
}

func NewLandingResolver(cfg config.Tracking) tracker.LandingResolver {
	return &landingResolver{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		defaultSlug: cfg.DefaultLandingSlug,
	}
}

func (r *landingResolver) LandingURL(messageID uint64, slug string) string {
	if slug == "" {
		slug = r.defaultSlug
	}
	return fmt.Sprintf("%s/landing/%s/%d", r.baseURL, slug, messageID)
}
