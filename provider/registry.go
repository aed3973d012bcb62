package provider

import (
	"errors"
	"sort"
)

// Constructor builds a provider from resolved credentials and model settings.
type Constructor func(apiKey, apiBase, modelType, modelName string, maxTokens int, temperature float64) Provider

// ProviderRegistration describes one provider backend.
type ProviderRegistration struct {
	Models      []string
	EnvKey      string
	EnvBase     string
	Constructor Constructor
}

var providerRegistry = map[string]ProviderRegistration{}

// RegisterProvider adds a provider backend. It is called from init functions.
func RegisterProvider(name string, reg ProviderRegistration) {
	providerRegistry[name] = reg
}

// SupportedProviders returns all supported provider names in sorted order.
func SupportedProviders() []string {
	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportedModelsForProvider returns supported model types for the given provider.
func SupportedModelsForProvider(providerName string) []string {
	reg, ok := providerRegistry[providerName]
	if !ok {
		return nil
	}
	out := make([]string, len(reg.Models))
	copy(out, reg.Models)
	return out
}

// ValidateProviderModelType checks if a model type is valid for a provider.
func ValidateProviderModelType(providerName, modelType string) error {
	reg, ok := providerRegistry[providerName]
	if !ok {
		return errors.New("unknown provider: " + providerName)
	}

	for _, m := range reg.Models {
		if m == modelType {
			return nil
		}
	}

	return errors.New("model type " + modelType + " is not supported by provider " + providerName)
}
