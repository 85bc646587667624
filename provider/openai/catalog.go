package openai

import (
	"strings"

	"github.com/loomkit/loom/provider"
)

// contextWindows holds the published token limits of the models we know
// about. Lookup falls back through prefixes so dated snapshots such as
// gpt-4o-2024-08-06 resolve to their family.
var contextWindows = map[string]int{
	"o1":            200000,
	"o1-mini":       128000,
	"gpt-4o":        128000,
	"gpt-4o-mini":   128000,
	"gpt-4-turbo":   128000,
	"gpt-4":         8192,
	"gpt-3.5-turbo": 16385,
}

func knownMetadata(name string) provider.Metadata {
	md := provider.NewMetadata(name)
	md.IsChatModel = true
	md.IsFunctionCalling = true
	if cw, ok := lookupContextWindow(name); ok {
		md.ContextWindow = cw
	}
	return md
}

func lookupContextWindow(name string) (int, bool) {
	if cw, ok := contextWindows[name]; ok {
		return cw, true
	}
	best := ""
	for family := range contextWindows {
		if strings.HasPrefix(name, family+"-") && len(family) > len(best) {
			best = family
		}
	}
	if best == "" {
		return 0, false
	}
	return contextWindows[best], true
}
