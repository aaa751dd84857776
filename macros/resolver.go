package macros

import (
	"strings"

	"github.com/prebid/prebid-beacon/util/randomutil"
	"github.com/prebid/prebid-beacon/util/timeutil"
)

// Resolver expands VAST macros in tracker URL templates.
type Resolver struct {
	replacer Replacer
	clock    timeutil.Time
	rnd      randomutil.RandomGenerator
}

// NewResolver returns a Resolver using the given Replacer.
func NewResolver(replacer Replacer) *Resolver {
	return &Resolver{
		replacer: replacer,
		clock:    &timeutil.RealTime{},
		rnd:      randomutil.RandomNumberGenerator{},
	}
}

var defaultResolver = NewResolver(NewReplacer(DefaultStartDelimiter, DefaultEndDelimiter))

// Resolve expands templates with the default bracket-delimited Resolver.
func Resolve(templates []string, opts Options) []string {
	return defaultResolver.Resolve(templates, opts)
}

// Resolve returns one URL per template, in order. Blank templates are returned unchanged
// so the caller decides what to do with them.
func (r *Resolver) Resolve(templates []string, opts Options) []string {
	if templates == nil {
		return nil
	}

	provider := NewProvider(opts, r.rnd, r.clock.Now())

	urls := make([]string, 0, len(templates))
	for _, template := range templates {
		if strings.TrimSpace(template) == "" {
			urls = append(urls, template)
			continue
		}
		urls = append(urls, r.replacer.Replace(template, provider))
	}
	return urls
}
