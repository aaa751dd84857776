package macros

import (
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultStartDelimiter = "["
	DefaultEndDelimiter   = "]"
)

// TemplateCacheOptions bounds the per-URL template cache. Tracker URLs come from request
// bodies, so entries expire after TTL and no more than MaxEntries are held at once.
// MaxEntries <= 0 disables caching.
type TemplateCacheOptions struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	MaxEntries      int
}

var DefaultTemplateCacheOptions = TemplateCacheOptions{
	TTL:             10 * time.Minute,
	CleanupInterval: time.Minute,
	MaxEntries:      10000,
}

type Replacer interface {
	// Replace the macros and returns replaced string
	Replace(url string, macroProvider Provider) string
}

type stringBasedReplacer struct {
	startDelimiter string
	endDelimiter   string
	templates      *cache.Cache
	maxTemplates   int
	insertMu       sync.Mutex
}

// NewReplacer returns a Replacer which finds macros between the given delimiters. Empty
// delimiters fall back to the VAST bracket syntax.
func NewReplacer(startDelimiter, endDelimiter string) Replacer {
	return NewReplacerWithCache(startDelimiter, endDelimiter, DefaultTemplateCacheOptions)
}

// NewReplacerWithCache is NewReplacer with explicit template cache bounds.
func NewReplacerWithCache(startDelimiter, endDelimiter string, opts TemplateCacheOptions) Replacer {
	if startDelimiter == "" {
		startDelimiter = DefaultStartDelimiter
	}
	if endDelimiter == "" {
		endDelimiter = DefaultEndDelimiter
	}
	return &stringBasedReplacer{
		startDelimiter: startDelimiter,
		endDelimiter:   endDelimiter,
		templates:      cache.New(opts.TTL, opts.CleanupInterval),
		maxTemplates:   opts.MaxEntries,
	}
}

// urlMetaTemplate records where each macro token sits inside a URL. starts[i] is the
// index of the start delimiter and ends[i] the index just past the end delimiter.
type urlMetaTemplate struct {
	starts []int
	ends   []int
}

func constructTemplate(url, startDelimiter, endDelimiter string) urlMetaTemplate {
	tmplt := urlMetaTemplate{}
	currentIndex := 0
	for currentIndex < len(url) {
		start := strings.Index(url[currentIndex:], startDelimiter)
		if start == -1 {
			break
		}
		start += currentIndex
		nameStart := start + len(startDelimiter)
		end := strings.Index(url[nameStart:], endDelimiter)
		if end == -1 {
			break
		}
		end += nameStart + len(endDelimiter)
		tmplt.starts = append(tmplt.starts, start)
		tmplt.ends = append(tmplt.ends, end)
		currentIndex = end
	}
	return tmplt
}

// Replace substitutes every known macro. Tokens the provider does not know are copied
// through untouched so bracketed hosts and third party macros survive.
func (r *stringBasedReplacer) Replace(url string, macroProvider Provider) string {
	tmplt := r.getTemplate(url)
	if len(tmplt.starts) == 0 {
		return url
	}

	var result strings.Builder
	result.Grow(len(url))
	currentIndex := 0
	for i, start := range tmplt.starts {
		end := tmplt.ends[i]
		macro := url[start+len(r.startDelimiter) : end-len(r.endDelimiter)]
		result.WriteString(url[currentIndex:start])
		if value, ok := macroProvider.GetMacro(macro); ok {
			result.WriteString(value)
		} else {
			result.WriteString(url[start:end])
		}
		currentIndex = end
	}
	result.WriteString(url[currentIndex:])
	return result.String()
}

func (r *stringBasedReplacer) getTemplate(url string) urlMetaTemplate {
	if cached, ok := r.templates.Get(url); ok {
		return cached.(urlMetaTemplate)
	}

	template := constructTemplate(url, r.startDelimiter, r.endDelimiter)
	// ItemCount includes expired entries not yet cleaned up, so the cap holds between cleanups.
	r.insertMu.Lock()
	if r.templates.ItemCount() < r.maxTemplates {
		r.templates.SetDefault(url, template)
	}
	r.insertMu.Unlock()
	return template
}

// cachedTemplates returns the number of templates currently held.
func (r *stringBasedReplacer) cachedTemplates() int {
	return r.templates.ItemCount()
}
