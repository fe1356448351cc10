package tokenizer

import (
	"context"

	"github.com/Lllllllleong/docpipeline/internal/models"
)

// Outcome is the result of an optional tokenization: either Result is set,
// or Reason explains why tokenization is unavailable.
type Outcome struct {
	Result *models.TokenizationResult
	Reason string
	Err    error
}

// Available reports whether tokenization succeeded.
func (o Outcome) Available() bool {
	return o.Result != nil
}

// Unavailable builds an Outcome for a skipped or failed tokenization.
func Unavailable(reason string, err error) Outcome {
	return Outcome{Reason: reason, Err: err}
}

// TryTokenize is Tokenize with the failure folded into the Outcome.
func (c *Client) TryTokenize(ctx context.Context, text string, onProgress ProgressFunc) Outcome {
	res, err := c.Tokenize(ctx, text, onProgress)
	if err != nil {
		return Unavailable(err.Error(), err)
	}
	return Outcome{Result: res}
}
