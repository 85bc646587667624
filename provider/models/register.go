// Package models is the process-wide catalog of model metadata. Provider
// packages register what they know about their models at init time;
// consumers look up context windows and output budgets by model name.
package models

import (
	"github.com/loomkit/loom/internal/registry"
	"github.com/loomkit/loom/provider"
)

var Global = registry.New[provider.Metadata]()

func Add(md provider.Metadata) {
	Global.Add(md.Model, md)
}

// Get returns the registered metadata for name.
func Get(name string) (provider.Metadata, bool) {
	return Global.Get(name)
}

// GetOrAdd returns the metadata for name, registering the result of mdF
// when the name is unknown.
func GetOrAdd(name string, mdF func() provider.Metadata) provider.Metadata {
	md, _ := Global.GetOrAdd(name, mdF)
	return md
}

func Del(name string) {
	Global.Del(name)
}

// Known lists the registered model names.
func Known() []string {
	return Global.Names()
}
