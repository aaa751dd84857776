package macros

import (
	"fmt"
	"net/url"
	"time"

	"github.com/prebid/prebid-beacon/util/randomutil"
)

const (
	MacroKeyErrorCode       = "ERRORCODE"
	MacroKeyContentPlayHead = "CONTENTPLAYHEAD"
	MacroKeyAssetURI        = "ASSETURI"
	MacroKeyCacheBusting    = "CACHEBUSTING"
	MacroKeyTimestamp       = "TIMESTAMP"
)

// Options carries the optional event context used to fill the VAST macros. Nil fields
// resolve to an empty value.
type Options struct {
	ErrorCode *VastErrorCode
	// ContentPlayHead is the playback position in milliseconds.
	ContentPlayHead *int
	AssetURI        *string
}

type Provider interface {
	// GetMacro returns the escaped macro value and whether key is a known macro.
	GetMacro(key string) (string, bool)
}

type vastMacroProvider struct {
	// macros map stores the unescaped macro values
	macros map[string]string
}

// NewProvider returns a Provider holding one snapshot of the VAST macros. The cachebuster
// and timestamp are computed once so every URL resolved with this provider shares them.
func NewProvider(opts Options, rnd randomutil.RandomGenerator, now time.Time) Provider {
	p := &vastMacroProvider{macros: map[string]string{
		MacroKeyErrorCode:       "",
		MacroKeyContentPlayHead: "",
		MacroKeyAssetURI:        "",
		MacroKeyCacheBusting:    cacheBuster(rnd),
		MacroKeyTimestamp:       now.UTC().Format(time.RFC3339),
	}}
	if opts.ErrorCode != nil {
		p.macros[MacroKeyErrorCode] = string(*opts.ErrorCode)
	}
	if opts.ContentPlayHead != nil {
		p.macros[MacroKeyContentPlayHead] = formatPlayHead(*opts.ContentPlayHead)
	}
	if opts.AssetURI != nil {
		p.macros[MacroKeyAssetURI] = *opts.AssetURI
	}
	return p
}

func (p *vastMacroProvider) GetMacro(key string) (string, bool) {
	value, ok := p.macros[key]
	if !ok {
		return "", false
	}
	return url.QueryEscape(value), true
}

// formatPlayHead renders milliseconds as HH:MM:SS.mmm. Negative positions clamp to zero.
func formatPlayHead(ms int) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3600000
	minutes := (ms / 60000) % 60
	seconds := (ms / 1000) % 60
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func cacheBuster(rnd randomutil.RandomGenerator) string {
	return fmt.Sprintf("%08d", rnd.GenerateInt63()%100000000)
}
