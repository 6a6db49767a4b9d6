package services

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/yungbote/mfe-orchestrator/internal/platform/apierr"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

// VersionPlaceholder is the single recognized substitution token inside a
// CUSTOM_URL host template.
const VersionPlaceholder = "$version"

// RequestContext is what the serve path knows about the caller. All fields
// are optional; an anonymous request has the zero value.
type RequestContext struct {
	// UserID is the serve-side identity (ON_USER allowlist key).
	UserID string
	// CanaryCookie reports whether the canary opt-in cookie was present
	// and truthy on the inbound request.
	CanaryCookie bool
	// Version overrides the microfrontend's current version in the
	// $version substitution when set.
	Version string
}

// RandSource supplies the uniform draw for ON_SESSIONS splits. Implementations
// must be safe for concurrent use.
type RandSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// CanaryResolver maps one microfrontend plus request context to exactly one
// serving URL. It is pure computation over already-fetched state: no I/O, no
// locks, safe to call once per microfrontend per request and concurrently.
//
// The ON_USER allowlist lookup is I/O and therefore happens outside: the
// caller fetches the record once per microfrontend and passes the outcome in
// as userAllowed.
type CanaryResolver interface {
	Resolve(mfe *types.Microfrontend, rc RequestContext, userAllowed bool) (string, error)
	StaticURL(mfe *types.Microfrontend, version string) (string, error)
	NeedsAllowlist(mfe *types.Microfrontend) bool
}

type canaryResolver struct {
	rand RandSource
}

func NewCanaryResolver(src RandSource) CanaryResolver {
	if src == nil {
		src = globalRand{}
	}
	return &canaryResolver{rand: src}
}

func (r *canaryResolver) Resolve(mfe *types.Microfrontend, rc RequestContext, userAllowed bool) (string, error) {
	if !mfe.CanaryEnabled() {
		return r.StaticURL(mfe, rc.Version)
	}

	c := mfe.Canary
	switch c.Type {
	case types.CanaryOnSessions:
		// Per-request coin flip, no session affinity: the same client may
		// see different variants on successive requests. Nothing stateful
		// is consulted here so the hot path stays cheap.
		if r.rand.Float64() < c.Percentage/100 {
			return r.canaryURL(mfe, rc)
		}
		return r.StaticURL(mfe, rc.Version)
	case types.CanaryOnUser:
		// Missing user id means not-enrolled, never an error.
		if rc.UserID != "" && userAllowed {
			return r.canaryURL(mfe, rc)
		}
		return r.StaticURL(mfe, rc.Version)
	case types.CanaryCookieBased:
		if rc.CanaryCookie {
			return r.canaryURL(mfe, rc)
		}
		return r.StaticURL(mfe, rc.Version)
	default:
		return "", apierr.InvalidConfiguration(mfe.Slug, fmt.Sprintf("unknown canary type %q", c.Type))
	}
}

// StaticURL resolves the non-canary target. version overrides the record's
// current version when non-empty.
func (r *canaryResolver) StaticURL(mfe *types.Microfrontend, version string) (string, error) {
	v := version
	if v == "" {
		v = mfe.Version
	}
	switch mfe.Host.Type {
	case types.HostOrchestratorHosted:
		// Fixed internal path keyed by id; the asset handler mounts here.
		return "/mfe/" + mfe.ID.String(), nil
	case types.HostCustomURL:
		if mfe.Host.URL == "" {
			return "", apierr.InvalidConfiguration(mfe.Slug, "host url is not set")
		}
		return strings.ReplaceAll(mfe.Host.URL, VersionPlaceholder, v), nil
	default:
		// CUSTOM_SOURCE needs a storage adapter that does not live on this
		// path; it is unresolvable here, like any unknown host type.
		return "", apierr.InvalidConfiguration(mfe.Slug, fmt.Sprintf("unresolvable host type %q", mfe.Host.Type))
	}
}

func (r *canaryResolver) NeedsAllowlist(mfe *types.Microfrontend) bool {
	return mfe.CanaryEnabled() && mfe.Canary.Type == types.CanaryOnUser
}

func (r *canaryResolver) canaryURL(mfe *types.Microfrontend, rc RequestContext) (string, error) {
	c := mfe.Canary
	switch c.DeploymentType {
	case types.CanaryBasedOnVersion:
		if c.CanaryVersion == "" {
			return "", apierr.InvalidConfiguration(mfe.Slug, "canary version is not set")
		}
		return r.StaticURL(mfe, c.CanaryVersion)
	case types.CanaryBasedOnURL:
		if c.CanaryURL == "" {
			return "", apierr.InvalidConfiguration(mfe.Slug, "canary url is not set")
		}
		return c.CanaryURL, nil
	default:
		return "", apierr.InvalidConfiguration(mfe.Slug, fmt.Sprintf("unknown canary deployment type %q", c.DeploymentType))
	}
}
