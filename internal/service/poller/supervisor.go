package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/exp/maps"

	"github.com/auxroom/server/internal/pubsub"
)

type Config struct {
	PollInterval      time.Duration
	ReconcileInterval time.Duration
	SeekTolerance     time.Duration
	ErrorThreshold    int
}

// Supervisor keeps the set of running pollers equal to the set of rooms
// marked active in the store. Activation changes made by request-handling
// code are picked up on the next reconciliation pass; nothing else starts
// or stops poller tasks.
type Supervisor struct {
	cfg      Config
	roomRepo iRoomRepo
	upstream iUpstream
	pub      pubsub.Publisher
	clock    clockwork.Clock
	logger   *slog.Logger

	mu    sync.Mutex
	tasks map[string]*task
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSupervisor(cfg Config, roomRepo iRoomRepo, upstream iUpstream, pub pubsub.Publisher, clock clockwork.Clock, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:      cfg,
		roomRepo: roomRepo,
		upstream: upstream,
		pub:      pub,
		clock:    clock,
		logger:   logger,
		tasks:    make(map[string]*task),
	}
}

// Run reconciles on a fixed cadence until the context is cancelled, then
// stops every poller and waits for them to exit.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.cfg.ReconcileInterval)
	defer ticker.Stop()

	s.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			s.stopAll()
			return
		case <-ticker.Chan():
			s.reconcile(ctx)
		}
	}
}

func (s *Supervisor) reconcile(ctx context.Context) {
	roomIds, err := s.roomRepo.GetActiveRoomIds(ctx)
	if err != nil {
		// transient store unavailability self-heals on the next pass
		s.logger.Warn("skipping reconciliation pass", "error", err)
		return
	}

	active := make(map[string]struct{}, len(roomIds))
	for _, roomId := range roomIds {
		active[roomId] = struct{}{}
	}

	s.mu.Lock()
	for roomId, t := range s.tasks {
		if _, ok := active[roomId]; !ok {
			t.cancel()
			delete(s.tasks, roomId)
		}
	}
	toStart := make([]string, 0)
	for roomId := range active {
		if _, ok := s.tasks[roomId]; !ok {
			toStart = append(toStart, roomId)
		}
	}
	s.mu.Unlock()

	for _, roomId := range toStart {
		s.startPoller(ctx, roomId)
	}
}

func (s *Supervisor) startPoller(ctx context.Context, roomId string) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		s.logger.Warn("failed to get room, poller not started", "room_id", roomId, "error", err)
		return
	}

	creds, err := s.roomRepo.GetCredentials(ctx, rm.HostId)
	if err != nil {
		s.logger.Warn("failed to get credentials, poller not started", "room_id", roomId, "error", err)
		return
	}

	p := &poller{
		roomId:         roomId,
		creds:          creds.ToDomain(rm.HostId),
		pollInterval:   s.cfg.PollInterval,
		seekTolerance:  s.cfg.SeekTolerance,
		errorThreshold: s.cfg.ErrorThreshold,
		roomRepo:       s.roomRepo,
		upstream:       s.upstream,
		pub:            s.pub,
		clock:          s.clock,
		logger:         s.logger,
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if _, ok := s.tasks[roomId]; ok {
		s.mu.Unlock()
		cancel()
		return
	}
	s.tasks[roomId] = t
	s.mu.Unlock()

	go func() {
		defer close(t.done)
		p.run(taskCtx)
		cancel()

		// self-terminated pollers leave the task map immediately so a
		// reactivated room gets a fresh task
		s.mu.Lock()
		if cur, ok := s.tasks[roomId]; ok && cur == t {
			delete(s.tasks, roomId)
		}
		s.mu.Unlock()
	}()
}

func (s *Supervisor) stopAll() {
	s.mu.Lock()
	tasks := maps.Values(s.tasks)
	s.tasks = make(map[string]*task)
	s.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	for _, t := range tasks {
		<-t.done
	}
}

type Status struct {
	ActiveRoomCount int      `json:"active_room_count"`
	ActiveRoomIds   []string `json:"active_room_ids"`
}

// GetStatus reports the rooms this instance is currently polling.
func (s *Supervisor) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		ActiveRoomCount: len(s.tasks),
		ActiveRoomIds:   maps.Keys(s.tasks),
	}
}
