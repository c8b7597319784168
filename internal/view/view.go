// Package view holds the state of one open resolution screen for one
// viewer. Nothing in a Session is shared with another resolution.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/resolution-tracker/internal"
	"github.com/frahmantamala/resolution-tracker/internal/authority"
	"github.com/frahmantamala/resolution-tracker/internal/content"
	"github.com/frahmantamala/resolution-tracker/internal/hierarchy"
	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/mention"
	"github.com/frahmantamala/resolution-tracker/internal/participant"
	"github.com/frahmantamala/resolution-tracker/internal/realtime"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/timeline"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

type Deps struct {
	Authority authority.Authority
	// Realtime is optional; without it the view only sees its own writes.
	Realtime *realtime.Adapter
	Logger   *slog.Logger
	// Workers bounds concurrent hierarchy lookups during classification.
	Workers int
	// OnChange is called after any state change that should be re-rendered.
	OnChange func()
}

type Session struct {
	authority authority.Authority
	realtime  *realtime.Adapter
	logger    *slog.Logger
	onChange  func()

	publicID   string
	viewer     user.User
	controller *resolution.Controller
	stream     *interaction.Stream
	classifier *participant.Classifier
	hierarchy  *hierarchy.Resolver
	chain      *hierarchy.RosterLookup
	workers    int

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	mounted  bool
	perms    resolution.Permissions
	roster   []user.User
	composer *mention.Composer
	pending  int64
}

// Open loads the resolution and its discussion for viewer and joins the
// realtime room. Only the resolution fetch is fatal; a failing discussion or
// progress fetch leaves that panel empty.
func Open(ctx context.Context, deps Deps, publicID string, viewer user.User) (*Session, error) {
	lg := deps.Logger
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	lg = lg.With("resolution_id", publicID, "viewer_id", viewer.ID)

	r, err := deps.Authority.FetchResolution(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("fetch resolution %s: %w", publicID, err)
	}

	page, err := deps.Authority.FetchInteractions(ctx, publicID)
	if err != nil {
		lg.WarnContext(ctx, "discussion unavailable", "error", err)
		page = &authority.InteractionsPage{}
	}
	progress, err := deps.Authority.FetchProgress(ctx, publicID)
	if err != nil {
		lg.WarnContext(ctx, "progress history unavailable", "error", err)
		progress = nil
	}

	chain := hierarchy.NewRosterLookup()
	resolver := hierarchy.NewResolver(hierarchy.LocalFirst{
		Local:  hierarchy.NewChainChecker(chain),
		Remote: deps.Authority,
	}, lg)
	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		authority:  deps.Authority,
		realtime:   deps.Realtime,
		logger:     lg,
		onChange:   deps.OnChange,
		publicID:   publicID,
		viewer:     viewer,
		stream:     interaction.NewStream(page.Comments, progress),
		classifier: participant.NewClassifier(resolver, participant.NewCache(), lg),
		hierarchy:  resolver,
		chain:      chain,
		workers:    deps.Workers,
		bg:         bg,
		cancel:     cancel,
		mounted:    true,
		perms:      page.Permissions,
		roster:     page.ChatParticipants,
		composer:   mention.NewComposer(page.ChatParticipants, viewer.ID),
	}
	s.controller = resolution.NewController(deps.Authority, *r, lg)
	s.controller.OnChange = func(resolution.Resolution) { s.notify() }

	s.learnRoster(page.ChatParticipants)
	s.classifier.Seed(s.roster, *r)
	s.classifyAsync(s.roster, *r)

	if s.realtime != nil {
		if err := s.realtime.Join(ctx, publicID, s.handleEvent); err != nil {
			lg.WarnContext(ctx, "live updates unavailable", "error", err)
		}
	}
	return s, nil
}

func (s *Session) classifyAsync(roster []user.User, r resolution.Resolution) {
	if len(roster) == 0 {
		return
	}
	s.spawn(func() {
		s.classifier.ClassifyRoster(s.bg, roster, r, s.workers, func(int64, participant.Type) {
			s.notify()
		})
	})
}

// learnRoster feeds the supervisor links the server sent with the roster
// to the local hierarchy chain.
func (s *Session) learnRoster(roster []user.User) {
	for _, p := range roster {
		if p.Supervisor != nil {
			s.chain.Set(p.ID, p.Supervisor.ID)
		}
	}
}

// spawn runs fn in the background while the view is mounted. Close waits
// for everything spawned before it unmounted.
func (s *Session) spawn(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
	return true
}

// Close leaves the room, stops background work and drops the per-view
// caches. Results that arrive afterwards are discarded.
func (s *Session) Close() error {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return nil
	}
	s.mounted = false
	s.mu.Unlock()

	var err error
	if s.realtime != nil {
		err = s.realtime.Leave(s.publicID)
	}
	s.cancel()
	s.wg.Wait()
	s.classifier.Cache().Clear()
	s.hierarchy.Clear()
	return err
}

func (s *Session) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

func (s *Session) Resolution() resolution.Resolution {
	return s.controller.Current()
}

func (s *Session) Viewer() user.User {
	return s.viewer
}

func (s *Session) Gate() resolution.Gate {
	s.mu.Lock()
	perms := s.perms
	s.mu.Unlock()
	return resolution.NewGate(s.controller.Current(), s.viewer, perms)
}

func (s *Session) Roster() []user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]user.User(nil), s.roster...)
}

// ParticipantType answers from the per-view cache; unresolved ids read as
// other until their lookup lands.
func (s *Session) ParticipantType(id int64) participant.Type {
	return s.classifier.Cache().TypeOf(id)
}

func (s *Session) ParticipantLabel(p user.User) string {
	return participant.Label(p, s.ParticipantType(p.ID))
}

func (s *Session) Items() []interaction.StreamItem {
	return s.stream.Items()
}

// ReplyPreview resolves ref against the live stream.
func (s *Session) ReplyPreview(ref interaction.ReplyRef) interaction.ResolvedReply {
	return interaction.ResolveReply(s.stream.Items(), ref)
}

// Composer returns the draft. It is meant to be driven from one goroutine.
func (s *Session) Composer() *mention.Composer {
	return s.composer
}

// SendMessage posts the current draft. On failure the draft is kept so the
// user can retry without retyping.
func (s *Session) SendMessage(ctx context.Context, replyToID *int64, attachments []interaction.Attachment) (*interaction.Interaction, error) {
	if s.Gate().Chat() != resolution.ChatEnabled {
		return nil, internal.ErrChatClosed
	}
	text := s.composer.Text()
	if content.IsBlank(text) && len(attachments) == 0 {
		return nil, internal.ErrEmptyContent
	}

	plain := content.PlainText(text)
	roster := s.Roster()
	mentions := mention.Union(mention.Prune(plain, s.composer.Selected()), mention.Parse(plain, roster))

	local := interaction.Interaction{
		Content:     content.Sanitize(text),
		CommentType: interaction.CommentMessage,
		Author:      s.viewer.Ref(),
		CreatedAt:   time.Now(),
		Attachments: attachments,
		Mentions:    user.IDs(mentions),
		Pending:     true,
	}
	if replyToID != nil {
		if reply := s.ReplyPreview(interaction.ReplyRef{ID: *replyToID}); reply.Live {
			local.ReplyTo = &interaction.ReplyRef{ID: reply.ID, Author: reply.Author, Content: reply.Content}
		}
	}
	if s.apply(func() {
		s.pending--
		local.ID = s.pending
		s.stream.AddInteraction(local)
	}) {
		s.notify()
	}

	created, err := s.authority.PostInteraction(ctx, s.publicID, authority.PostInteractionRequest{
		Content:     text,
		Mentions:    local.Mentions,
		ReplyToID:   replyToID,
		Attachments: attachments,
	})
	if err != nil {
		if s.apply(func() { s.stream.RemovePending(local.ID) }) {
			s.notify()
		}
		s.logger.WarnContext(ctx, "message not sent", "error", err, "retryable", internal.IsRetryable(err))
		return nil, err
	}

	s.composer.Reset()
	if s.apply(func() {
		s.stream.RemovePending(local.ID)
		s.stream.AddInteraction(*created)
	}) {
		s.notify()
	}
	return created, nil
}

// SubmitProgress records a progress report from the executor unit.
func (s *Session) SubmitProgress(ctx context.Context, pct int, description string) (*interaction.ProgressUpdate, error) {
	if !s.Gate().CanSubmitProgress() {
		return nil, internal.ErrActionNotAllowed
	}
	if pct < 0 || pct > 100 {
		return nil, internal.ErrInvalidProgress
	}
	if strings.TrimSpace(description) == "" {
		return nil, internal.ErrEmptyContent.WithMessage("a progress description is required")
	}

	update, err := s.authority.PostProgress(ctx, s.publicID, authority.PostProgressRequest{
		Progress:    pct,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	s.applyProgress(*update)
	return update, nil
}

// Transition runs req through the gate and then the controller. The gate
// refuses actions the viewer could not see a button for.
func (s *Session) Transition(ctx context.Context, req resolution.Request) (resolution.Resolution, error) {
	g := s.Gate()
	allowed := g.CanInvoke(req.Action)
	if req.Action == resolution.ActionUpdateStatus {
		allowed = g.CanSetStatus(req.Status)
	}
	if !allowed {
		return g.Resolution, internal.ErrActionNotAllowed
	}

	updated, err := s.controller.Transition(ctx, req)
	if err != nil {
		return updated, err
	}
	s.refreshPermissions(ctx)
	return updated, nil
}

// Timeline fetches the event log and decorates it for display.
func (s *Session) Timeline(ctx context.Context) ([]timeline.Item, error) {
	events, err := s.authority.FetchTimeline(ctx, s.publicID)
	if err != nil {
		return nil, err
	}
	return timeline.Build(events), nil
}

func (s *Session) refreshPermissions(ctx context.Context) {
	page, err := s.authority.FetchInteractions(ctx, s.publicID)
	if err != nil {
		s.logger.WarnContext(ctx, "could not refresh permissions", "error", err)
		return
	}
	var unresolved []user.User
	mounted := s.apply(func() {
		s.perms = page.Permissions
		s.roster = page.ChatParticipants
		s.composer.SetRoster(page.ChatParticipants)
		for _, c := range page.Comments {
			s.stream.AddInteraction(c)
		}
	})
	if !mounted {
		return
	}

	s.learnRoster(page.ChatParticipants)
	r := s.controller.Current()
	cache := s.classifier.Cache()
	for _, p := range page.ChatParticipants {
		if _, ok := cache.Get(p.ID); !ok {
			unresolved = append(unresolved, p)
		}
	}
	s.classifier.Seed(unresolved, r)
	s.classifyAsync(unresolved, r)
	s.notify()
}

func (s *Session) handleEvent(ev realtime.Event) {
	if !s.Mounted() {
		return
	}
	var err error
	switch ev.Type {
	case realtime.EventNewInteraction:
		var in interaction.Interaction
		if err = ev.Decode(&in); err == nil {
			s.apply(func() { s.stream.AddInteraction(in) })
			s.notify()
		}
	case realtime.EventNewProgress:
		var p interaction.ProgressUpdate
		if err = ev.Decode(&p); err == nil {
			s.applyProgress(p)
		}
	case realtime.EventStatusChanged:
		var r resolution.Resolution
		if err = ev.Decode(&r); err == nil && s.controller.Reconcile(r) {
			s.spawn(func() { s.refreshPermissions(s.bg) })
		}
	default:
		err = errors.New("unknown event type")
	}
	if err != nil {
		s.logger.Warn("ignoring room event", "type", ev.Type, "error", err)
	}
}

func (s *Session) applyProgress(p interaction.ProgressUpdate) {
	if !s.apply(func() { s.stream.AddProgress(p) }) {
		return
	}
	latest, ok := s.stream.LatestProgress()
	if ok && latest.ID == p.ID {
		current := s.controller.Current()
		current.Progress = p.Progress
		if !s.controller.Reconcile(current) {
			s.notify()
		}
		return
	}
	s.notify()
}

// apply runs fn under the view lock if the view is still mounted.
func (s *Session) apply(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return false
	}
	fn()
	return true
}

func (s *Session) notify() {
	if s.onChange != nil && s.Mounted() {
		s.onChange()
	}
}
