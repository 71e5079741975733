package model

import (
	"fmt"
	"strings"
)

// PromptKind selects the transformation to apply to a transcript
type PromptKind string

const (
	PromptSummarize PromptKind = "summarize"
	PromptTranslate PromptKind = "translate"
	PromptStructure PromptKind = "structure"
	PromptCustom    PromptKind = "custom"
)

var builtinInstructions = map[PromptKind]string{
	PromptSummarize: "Summarize the following transcript concisely. Keep the most important information and key statements.",
	PromptTranslate: "Translate the following text into English. Use natural phrasing and correct terminology.",
	PromptStructure: "Structure the following transcript for readability. Add headings, paragraphs and bullet points.",
}

// Prompt is a transformation instruction. Built-in kinds carry fixed text,
// Custom carries user text and optionally the name it was saved under.
type Prompt struct {
	Kind PromptKind `json:"kind"`
	Name string     `json:"name,omitempty"`
	Text string     `json:"text,omitempty"`
}

func Summarize() Prompt { return Prompt{Kind: PromptSummarize} }
func Translate() Prompt { return Prompt{Kind: PromptTranslate} }
func Structure() Prompt { return Prompt{Kind: PromptStructure} }

// Custom returns a custom prompt with the given text
func Custom(text string) Prompt {
	return Prompt{Kind: PromptCustom, Text: text}
}

// NamedCustom returns a custom prompt from the saved prompt library
func NamedCustom(name, text string) Prompt {
	return Prompt{Kind: PromptCustom, Name: name, Text: text}
}

// BuiltinPrompts lists the fixed prompts in display order
func BuiltinPrompts() []Prompt {
	return []Prompt{Summarize(), Translate(), Structure()}
}

// Instruction returns the system instruction sent to the transformation service.
func (p Prompt) Instruction() string {
	if p.Kind == PromptCustom {
		return p.Text
	}
	return builtinInstructions[p.Kind]
}

// Key is the value persisted as the session's transform prompt.
func (p Prompt) Key() string {
	if p.Kind == PromptCustom && p.Name != "" {
		return "custom:" + p.Name
	}
	return string(p.Kind)
}

// Validate checks that the prompt is usable
func (p Prompt) Validate() error {
	switch p.Kind {
	case PromptSummarize, PromptTranslate, PromptStructure:
		return nil
	case PromptCustom:
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("custom prompt text is empty")
		}
		return nil
	default:
		return fmt.Errorf("unknown prompt kind %q", p.Kind)
	}
}

func (p Prompt) String() string {
	return p.Key()
}

// ParsePrompt accepts summarize, translate, structure or custom:<text>.
func ParsePrompt(s string) (Prompt, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "custom:"); ok {
		p := Custom(rest)
		if err := p.Validate(); err != nil {
			return Prompt{}, err
		}
		return p, nil
	}
	switch PromptKind(strings.ToLower(s)) {
	case PromptSummarize:
		return Summarize(), nil
	case PromptTranslate:
		return Translate(), nil
	case PromptStructure:
		return Structure(), nil
	}
	return Prompt{}, fmt.Errorf("unknown prompt %q, expected summarize, translate, structure or custom:<text>", s)
}
