package chat

import (
	_ "embed"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

//go:embed prompt/persona.yaml
var defaultPersonaRaw []byte

const datePlaceholder = "{{date}}"

// Persona is the system instruction given to the model on every turn. It is
// never stored in the transcript.
type Persona struct {
	Name          string `yaml:"name"`
	SystemMessage string `yaml:"system_message"`
}

// DefaultPersona returns the built-in journaling persona
func DefaultPersona() *Persona {
	p, err := parsePersona(defaultPersonaRaw)
	if err != nil {
		panic("embedded persona is broken: " + err.Error())
	}
	return p
}

// LoadPersona reads a persona YAML file
func LoadPersona(path string) (*Persona, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read persona file", goerr.V("path", path))
	}

	p, err := parsePersona(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid persona file", goerr.V("path", path))
	}
	return p, nil
}

func parsePersona(raw []byte) (*Persona, error) {
	var p Persona
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, goerr.Wrap(err, "failed to parse persona")
	}
	if strings.TrimSpace(p.SystemMessage) == "" {
		return nil, goerr.New("system_message is empty")
	}
	return &p, nil
}

// Render returns the system message with the date placeholder filled in
func (p *Persona) Render(now time.Time) string {
	return renderSystemMessage(p.SystemMessage, now)
}

func renderSystemMessage(msg string, now time.Time) string {
	return strings.ReplaceAll(msg, datePlaceholder, now.Format("January 2, 2006"))
}
