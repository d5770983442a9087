package analyzer

import "sync"

// cache memoizes analyses for the process lifetime, keyed by template
// text. Template literals are immutable for the life of the binary, so
// entries are never invalidated. Concurrent first-time analysis of the
// same template is idempotent; the read lock covers the hot path.
var cache = struct {
	sync.RWMutex
	m map[string]*Analysis
}{m: make(map[string]*Analysis)}

// For returns the memoized analysis for a template, computing it on first
// use.
func For(tpl string) (*Analysis, error) {
	cache.RLock()
	a, ok := cache.m[tpl]
	cache.RUnlock()
	if ok {
		return a, nil
	}

	a, err := Analyze(tpl)
	if err != nil {
		return nil, err
	}

	cache.Lock()
	if prior, ok := cache.m[tpl]; ok {
		a = prior
	} else {
		cache.m[tpl] = a
	}
	cache.Unlock()
	return a, nil
}
