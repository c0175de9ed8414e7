package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/irlisten/internal/combination"
	"git.home.luguber.info/inful/irlisten/internal/logfields"
	"git.home.luguber.info/inful/irlisten/internal/state"
)

// NotifyFunc announces the combination about to be learned so the operator
// can point the remote. The medium is the caller's concern.
type NotifyFunc func(c combination.Combination)

// Options tunes a learning run.
type Options struct {
	// Timeout bounds each individual wait for a code.
	Timeout time.Duration
	// NoTempOnModes lists operation modes whose IR code ignores temperature:
	// only the lowest temperature point is listened for, the rest reuse it.
	NoTempOnModes []string
	// NoSwingOnModes lists operation modes whose IR code ignores swing: the
	// first swing position's code is reused for the remaining positions.
	NoSwingOnModes []string
}

// Summary reports what a run achieved. Pending counts combinations still
// unlearned when the run ended, skipped ones included.
type Summary struct {
	Captured int
	Reused   int
	Skipped  int
	Pending  int
	Aborted  bool
}

// Orchestrator walks the pending combinations in canonical order and records
// each captured code into the partial state, persisting after every capture.
// It owns the state exclusively for the duration of the run.
type Orchestrator struct {
	learner      Learner
	space        combination.Space
	st           *state.PartialState
	snapshotPath string
	notify       NotifyFunc
	opts         Options
	logger       *slog.Logger
}

// NewOrchestrator validates the options against the combination space and
// returns a ready orchestrator. Option errors are configuration errors:
// fatal, and reported before any capture begins.
func NewOrchestrator(learner Learner, space combination.Space, st *state.PartialState,
	snapshotPath string, notify NotifyFunc, opts Options) (*Orchestrator, error) {

	if learner == nil {
		return nil, fmt.Errorf("learner is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	for _, m := range opts.NoTempOnModes {
		if !containsMode(space.OperationModes, m) {
			return nil, fmt.Errorf("no-temp-on-mode %q is not a declared operation mode", m)
		}
	}
	if len(opts.NoSwingOnModes) > 0 && len(space.SwingModes) == 0 {
		return nil, fmt.Errorf("no-swing-on-mode requires swing modes in the climate file")
	}
	for _, m := range opts.NoSwingOnModes {
		if !containsMode(space.OperationModes, m) {
			return nil, fmt.Errorf("no-swing-on-mode %q is not a declared operation mode", m)
		}
	}

	return &Orchestrator{
		learner:      learner,
		space:        space,
		st:           st,
		snapshotPath: snapshotPath,
		notify:       notify,
		opts:         opts,
		logger:       slog.Default(),
	}, nil
}

// Run processes every pending combination strictly in enumerator order. The
// pending set is recomputed fresh from the loaded state, so combinations
// captured by a previous run are never requested again.
//
// Cancellation is observed at the single suspension point: the run stops
// with Summary.Aborted set, the snapshot on disk intact. Interruption is a
// graceful shutdown path, not an error.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	pending := combination.Pending(o.space.Enumerate(), o.st.Has)
	sum := Summary{Pending: len(pending)}

	o.logger.Info("starting learning run",
		logfields.Pending(len(pending)),
		logfields.SessionID(o.st.SessionID))

	for _, comb := range pending {
		if ctx.Err() != nil {
			sum.Aborted = true
			break
		}

		if code, srcKey, ok := o.reusableCode(comb); ok {
			o.st.Record(comb.Key(), code)
			if err := o.st.Save(o.snapshotPath); err != nil {
				return sum, err
			}
			sum.Reused++
			sum.Pending--
			o.logger.Debug("reused code",
				logfields.Combination(comb.Key()),
				logfields.ReusedFrom(srcKey))
			continue
		}

		if o.notify != nil {
			o.notify(comb)
		}

		res, err := o.learner.AwaitCapture(ctx, o.opts.Timeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				sum.Aborted = true
				break
			}
			// Device I/O failure: the last good snapshot is already on disk.
			return sum, fmt.Errorf("capture failed for %s: %w", comb, err)
		}

		switch res.Outcome {
		case Captured:
			if res.Code == "" {
				// Contract violation by the collaborator; treat as no signal.
				sum.Skipped++
				continue
			}
			o.st.Record(comb.Key(), res.Code)
			if err := o.st.Save(o.snapshotPath); err != nil {
				return sum, err
			}
			sum.Captured++
			sum.Pending--
			o.logger.Info("captured", logfields.Combination(comb.Key()))
		case NoSignal, TimedOut:
			sum.Skipped++
			o.logger.Info("skipped",
				logfields.Combination(comb.Key()),
				slog.String("reason", res.Outcome.String()))
		}
	}

	if sum.Aborted {
		o.logger.Info("run interrupted",
			logfields.Captured(sum.Captured),
			logfields.Pending(sum.Pending))
	} else {
		o.logger.Info("run complete",
			logfields.Captured(sum.Captured),
			logfields.Skipped(sum.Skipped))
	}
	return sum, nil
}

// reusableCode resolves the reuse rules for modes that ignore temperature or
// swing. Temperature reuse wins when both apply. If the source combination
// was itself skipped there is nothing to copy and the caller listens as
// usual.
func (o *Orchestrator) reusableCode(c combination.Combination) (code, srcKey string, ok bool) {
	if c.Off {
		return "", "", false
	}
	if containsMode(o.opts.NoTempOnModes, c.OperationMode) &&
		len(o.space.Temperatures) > 0 && c.Temperature != o.space.Temperatures[0] {
		src := c
		src.Temperature = o.space.Temperatures[0]
		if code, found := o.st.Code(src.Key()); found && code != "" {
			return code, src.Key(), true
		}
	}
	if containsMode(o.opts.NoSwingOnModes, c.OperationMode) &&
		c.SwingMode != "" && len(o.space.SwingModes) > 0 && c.SwingMode != o.space.SwingModes[0] {
		src := c
		src.SwingMode = o.space.SwingModes[0]
		if code, found := o.st.Code(src.Key()); found && code != "" {
			return code, src.Key(), true
		}
	}
	return "", "", false
}

func containsMode(modes []string, m string) bool {
	for _, mode := range modes {
		if mode == m {
			return true
		}
	}
	return false
}
