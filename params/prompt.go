package params

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/cantara/bragi/sbragi"

	"github.com/cantara/playbookgen/ansible"
)

// Prompter asks for parameter values line by line.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Ask prints "label [def]: " and returns the trimmed answer, def for an empty one.
// io.EOF is returned once input is exhausted.
func (p *Prompter) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// Collect asks for every prompt of m missing from known. An empty answer keeps the
// declared default, a required prompt without default is asked again. Answers are
// parsed with ParseValue. Input running out stops the questions, the required check
// is left to the library.
func (p *Prompter) Collect(m ansible.Module, known map[string]any) (map[string]any, error) {
	out := map[string]any{}
	if len(m.Prompts) > 0 {
		fmt.Fprintf(p.out, "\n%s: %s\n", m.Name, m.Description)
	}
	for _, prompt := range m.Prompts {
		if _, ok := known[prompt.Name]; ok {
			continue
		}
		label := prompt.Name
		if prompt.Description != "" {
			label = fmt.Sprintf("%s (%s)", prompt.Description, prompt.Name)
		}
		hasDefault := prompt.Default != nil
		if hasDefault {
			label = fmt.Sprintf("%s [%v]", label, prompt.Default)
		}
		for {
			answer, err := p.Ask(label, "")
			if err != nil {
				if errors.Is(err, io.EOF) {
					log.Debug("input closed while prompting", "module", m.Name, "prompt", prompt.Name)
					return out, nil
				}
				return nil, err
			}
			if answer != "" {
				out[prompt.Name] = ParseValue(answer)
				break
			}
			if hasDefault || !prompt.Required {
				break
			}
			fmt.Fprintf(p.out, "%s is required\n", prompt.Name)
		}
	}
	return out, nil
}
