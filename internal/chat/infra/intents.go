// Package infra loads the static resources the chat module reads at
// startup.
package infra

import (
	"fmt"
	"os"
	"strings"

	"github.com/havensuites/concierge/internal/chat/domain"
	maindomain "github.com/havensuites/concierge/internal/domain"

	"gopkg.in/yaml.v3"
)

// LoadCorpus reads the intents corpus from path. JSON and YAML both parse,
// since JSON is valid YAML.
//
// Patterns are lower-cased so they compare against lower-cased messages.
// Intents with no patterns or no responses are kept but never match; a
// corpus where no intent can match is rejected.
func LoadCorpus(path string) (*domain.Corpus, error) {
	if path == "" {
		return nil, &maindomain.ErrMisconfigured{Resource: "intents corpus", Reason: "no path"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &maindomain.ErrMisconfigured{Resource: "intents corpus", Reason: err.Error()}
	}

	var corpus domain.Corpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, &maindomain.ErrMisconfigured{Resource: "intents corpus", Reason: "parse " + path + ": " + err.Error()}
	}
	if len(corpus.Intents) == 0 {
		return nil, &maindomain.ErrMisconfigured{Resource: "intents corpus", Reason: "no intents in " + path}
	}

	usable := 0
	for i := range corpus.Intents {
		in := &corpus.Intents[i]
		for j, p := range in.Patterns {
			in.Patterns[j] = strings.ToLower(p)
		}
		if len(in.Patterns) > 0 && len(in.Responses) > 0 {
			usable++
		}
	}
	if usable == 0 {
		return nil, &maindomain.ErrMisconfigured{
			Resource: "intents corpus",
			Reason:   fmt.Sprintf("none of the %d intents in %s has both patterns and responses", len(corpus.Intents), path),
		}
	}
	return &corpus, nil
}
