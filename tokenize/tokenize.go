package tokenize

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// DefaultMaxLength matches the CLIP text encoder's context size.
const DefaultMaxLength = 77

// Encoder turns caption text into fixed-length token id sequences.
type Encoder struct {
	tok       *tokenizer.Tokenizer
	maxLength int
	padID     int64
}

// NewEncoder loads a HuggingFace tokenizer.json from disk. maxLength <= 0
// selects DefaultMaxLength.
func NewEncoder(path string, maxLength int) (*Encoder, error) {
	tok, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer from %s: %w", path, err)
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Encoder{tok: tok, maxLength: maxLength}, nil
}

// MaxLength returns the fixed output length.
func (e *Encoder) MaxLength() int { return e.maxLength }

// PromptIDs encodes the prompt with special tokens, truncates to the fixed
// length and pads the remainder with the pad id. The returned slice always
// has exactly MaxLength entries.
func (e *Encoder) PromptIDs(prompt string) ([]int64, error) {
	input := tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(prompt))
	enc, err := e.tok.Encode(input, true)
	if err != nil {
		return nil, fmt.Errorf("encoding prompt: %w", err)
	}
	return padIDs(enc.GetIds(), e.maxLength, e.padID), nil
}

// padIDs truncates or right-pads ids to length n.
func padIDs(ids []int, n int, pad int64) []int64 {
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		if i < len(ids) {
			out[i] = int64(ids[i])
		} else {
			out[i] = pad
		}
	}
	return out
}
