package presenter

import (
	"github.com/rs/zerolog/log"
	"github/chapool/go-txrelay/internal/transactions"
)

type Recorder interface {
	RecordSubmission(path string, result transactions.Result)
}

// Instrumented logs and counts every result before handing it to next.
type Instrumented struct {
	next     transactions.Presenter
	recorder Recorder
	path     string
}

var _ transactions.Presenter = (*Instrumented)(nil)

// NewInstrumented wraps next. recorder may be nil.
func NewInstrumented(next transactions.Presenter, recorder Recorder, path string) *Instrumented {
	return &Instrumented{next: next, recorder: recorder, path: path}
}

func (p *Instrumented) Present(result transactions.Result) {
	if p.recorder != nil {
		p.recorder.RecordSubmission(p.path, result)
	}

	result.Match(
		func() {
			log.Info().Str("path", p.path).Msg("Submission succeeded")
		},
		func(err error) {
			log.Warn().
				Err(err).
				Str("path", p.path).
				Str("errorKind", transactions.Classify(err).String()).
				Msg("Submission failed")
		},
	)

	p.next.Present(result)
}
