// Package connect runs the Instagram account-linking completion flow: it
// interprets the OAuth redirect result, resolves which page carries a linked
// Instagram business account, relays the outcome to the opener and closes
// itself after a bounded delay.
package connect

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bizpilot/go-auth-client/connect/relay"
	"github.com/bizpilot/go-auth-client/graph"
)

// Status is the flow's user-visible state. Processing is the only
// non-terminal state; there is no transition out of Success or Error.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Close delays. The error delay is longer so the user can read what went
// wrong before the window vanishes.
const (
	successCloseDelay = 2 * time.Second
	errorCloseDelay   = 3 * time.Second
)

// Error codes relayed to the opener.
const (
	codeInvalidRequest  = "invalid_request"
	codeNoPagesFound    = "no_pages_found"
	codeNoLinkedAccount = "no_linked_account"
	codeGraphError      = "graph_error"
)

// GraphService is the slice of the graph API the flow needs. *graph.Client
// satisfies it.
type GraphService interface {
	ListPages(ctx context.Context, userToken string) ([]graph.Page, error)
	LinkedInstagramAccount(ctx context.Context, pageID, pageToken string) (*graph.InstagramAccount, error)
}

// OutcomeRecorder receives the flow's terminal state for metrics.
type OutcomeRecorder interface {
	RecordConnectOutcome(state, code string)
}

// Flow is a single run of the completion handshake. A nil sender means the
// opener is gone: the flow still walks its state transitions and self-closes,
// it just has nobody to message.
type Flow struct {
	graph  GraphService
	sender relay.Sender
	origin string
	log    zerolog.Logger

	successDelay time.Duration
	errorDelay   time.Duration
	afterFunc    func(d time.Duration, f func()) *time.Timer
	onStatus     func(text string)
	outcomes     OutcomeRecorder

	mu         sync.Mutex
	status     Status
	statusText string
	sent       bool

	done      chan struct{}
	closeOnce sync.Once
}

type FlowOption func(*Flow)

// WithCloseDelays overrides the self-close delays (primarily for testing).
func WithCloseDelays(success, failure time.Duration) FlowOption {
	return func(f *Flow) {
		f.successDelay = success
		f.errorDelay = failure
	}
}

// WithAfterFunc overrides timer scheduling (primarily for testing).
func WithAfterFunc(afterFunc func(d time.Duration, f func()) *time.Timer) FlowOption {
	return func(f *Flow) {
		f.afterFunc = afterFunc
	}
}

// WithStatusFunc registers a callback for user-visible status updates.
func WithStatusFunc(onStatus func(text string)) FlowOption {
	return func(f *Flow) {
		f.onStatus = onStatus
	}
}

func WithOutcomeRecorder(outcomes OutcomeRecorder) FlowOption {
	return func(f *Flow) {
		f.outcomes = outcomes
	}
}

func WithFlowLogger(logger zerolog.Logger) FlowOption {
	return func(f *Flow) {
		f.log = logger
	}
}

// NewFlow builds a flow that relays to sender, restricted to origin. sender
// may be nil when no opener exists.
func NewFlow(graphService GraphService, sender relay.Sender, origin string, options ...FlowOption) (*Flow, error) {
	if graphService == nil {
		return nil, errors.New("[NewFlow] graph service is required")
	}

	flow := &Flow{
		graph:        graphService,
		sender:       sender,
		origin:       origin,
		log:          zerolog.Nop(),
		successDelay: successCloseDelay,
		errorDelay:   errorCloseDelay,
		afterFunc:    time.AfterFunc,
		status:       StatusProcessing,
		done:         make(chan struct{}),
	}
	for _, opt := range options {
		opt(flow)
	}
	return flow, nil
}

// Run executes the completion handshake and returns the terminal status. It
// never returns an error: every failure ends in the same relay-and-close
// sequence the success path uses.
func (f *Flow) Run(ctx context.Context, params CallbackParams) Status {
	f.setStatusText("Finishing Instagram authorization...")

	if params.Error != "" {
		// Explicit provider rejection: relay it verbatim, no graph calls.
		return f.fail(ctx, params.Error, params.ErrorDesc)
	}
	if !params.wellFormed() {
		return f.fail(ctx, codeInvalidRequest, "callback is missing required parameters")
	}

	f.setStatusText("Fetching your Facebook pages...")
	pages, err := f.graph.ListPages(ctx, params.AccessToken)
	if err != nil {
		f.log.Error().Err(err).Msg("page listing failed")
		return f.fail(ctx, codeGraphError, "could not fetch your Facebook pages")
	}
	if len(pages) == 0 {
		return f.fail(ctx, codeNoPagesFound, "no Facebook pages found for this account")
	}

	f.setStatusText("Looking for a linked Instagram business account...")
	accounts, err := f.resolveLinkedAccounts(ctx, pages)
	if err != nil {
		f.log.Error().Err(err).Msg("linked account fan-out failed")
		return f.fail(ctx, codeGraphError, "could not check your pages for a linked Instagram account")
	}

	for i, page := range pages {
		if accounts[i] == nil {
			continue
		}
		return f.succeed(ctx, relay.SuccessData{
			PageID:            page.ID,
			PageAccessToken:   page.AccessToken,
			BusinessID:        params.BusinessID,
			InstagramID:       accounts[i].ID,
			InstagramUsername: accounts[i].Username,
		})
	}

	return f.fail(ctx, codeNoLinkedAccount, "none of your pages has a linked Instagram business account")
}

// resolveLinkedAccounts queries every page concurrently and joins the
// results. A graph-level rejection of one lookup counts as "no account for
// that page"; a transport failure aborts the whole batch.
func (f *Flow) resolveLinkedAccounts(ctx context.Context, pages []graph.Page) ([]*graph.InstagramAccount, error) {
	accounts := make([]*graph.InstagramAccount, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		g.Go(func() error {
			account, err := f.graph.LinkedInstagramAccount(gctx, page.ID, page.AccessToken)
			if err != nil {
				var apiErr *graph.APIError
				if errors.As(err, &apiErr) {
					f.log.Debug().Str("page_id", page.ID).Err(err).Msg("page lookup rejected, treating as unlinked")
					return nil
				}
				return err
			}
			accounts[i] = account
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (f *Flow) succeed(ctx context.Context, data relay.SuccessData) Status {
	if !f.transition(StatusSuccess) {
		return f.Status()
	}

	f.relay(ctx, relay.Message{
		ID:           uuid.New().String(),
		Type:         relay.TypeConnectSuccess,
		TargetOrigin: f.origin,
		Data:         &data,
	})

	f.setStatusText("Instagram account connected. This window will close itself.")
	f.record(StatusSuccess, "")
	f.scheduleClose(f.successDelay)
	return StatusSuccess
}

func (f *Flow) fail(ctx context.Context, code, description string) Status {
	if !f.transition(StatusError) {
		return f.Status()
	}

	f.relay(ctx, relay.Message{
		ID:           uuid.New().String(),
		Type:         relay.TypeConnectError,
		TargetOrigin: f.origin,
		Error:        code,
		ErrorDesc:    description,
	})

	f.setStatusText("Connection failed: " + description + " This window will close itself.")
	f.record(StatusError, code)
	f.scheduleClose(f.errorDelay)
	return StatusError
}

// transition moves processing to the given terminal state. It reports false
// when the flow has already terminated, which keeps the one-message-per-run
// invariant even if a path were to double-complete.
func (f *Flow) transition(to Status) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != StatusProcessing {
		return false
	}
	f.status = to
	return true
}

func (f *Flow) relay(ctx context.Context, msg relay.Message) {
	if f.sender == nil {
		f.log.Debug().Str("type", string(msg.Type)).Msg("no opener, skipping completion message")
		return
	}

	f.mu.Lock()
	alreadySent := f.sent
	f.sent = true
	f.mu.Unlock()
	if alreadySent {
		return
	}

	if err := f.sender.Send(ctx, msg); err != nil {
		f.log.Warn().Err(err).Msg("failed to deliver completion message")
	}
}

func (f *Flow) record(status Status, code string) {
	if f.outcomes != nil {
		f.outcomes.RecordConnectOutcome(string(status), code)
	}
}

// scheduleClose arms the self-close timer. The timer is never cancelled:
// once a terminal state is reached the window goes away.
func (f *Flow) scheduleClose(delay time.Duration) {
	f.afterFunc(delay, func() {
		f.closeOnce.Do(func() {
			close(f.done)
		})
	})
}

// Done is closed when the flow's self-close delay has elapsed.
func (f *Flow) Done() <-chan struct{} {
	return f.done
}

func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// CloseDelay is how long the window stays open once the flow terminates. It
// follows the current status, so the rendered page and the armed timer always
// agree.
func (f *Flow) CloseDelay() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == StatusError {
		return f.errorDelay
	}
	return f.successDelay
}

// StatusText is the current user-visible status line.
func (f *Flow) StatusText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusText
}

func (f *Flow) setStatusText(text string) {
	f.mu.Lock()
	f.statusText = text
	f.mu.Unlock()

	if f.onStatus != nil {
		f.onStatus(text)
	}
}
