package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"memegen/internal/domain"
	"memegen/internal/infra"
	"memegen/internal/prompt"
)

const (
	msgNoFile = "Please upload an image first."
	msgBusy   = "A meme is already being generated."
)

// Encoder converts the selected file into its transport form.
type Encoder interface {
	Encode(ctx context.Context, file domain.File) (domain.EncodedPayload, error)
}

// Generator performs one exchange with the image generation service.
type Generator interface {
	Generate(ctx context.Context, payload domain.EncodedPayload, instruction string) (domain.GeneratedImage, error)
}

// ComposeFunc builds the instruction for a style and note.
type ComposeFunc func(styleID, userNote string) string

// Options wires the controller's collaborators. Compose defaults to
// prompt.Compose and Logger to a discarding logger.
type Options struct {
	Encoder   Encoder
	Generator Generator
	Compose   ComposeFunc
	Logger    *infra.Logger
}

// Controller is the single owner of a workflow's state. The mutex guards the
// fields only; it is never held while the pipeline runs, the busy flag is what
// keeps a second generation out.
type Controller struct {
	encoder   Encoder
	generator Generator
	compose   ComposeFunc
	logger    infra.Logger

	mu      sync.Mutex
	state   State
	subs    map[int]chan State
	nextSub int
	closed  bool
}

func NewController(opts Options) (*Controller, error) {
	if opts.Encoder == nil {
		return nil, errors.New("workflow: encoder is required")
	}
	if opts.Generator == nil {
		return nil, errors.New("workflow: generator is required")
	}
	compose := opts.Compose
	if compose == nil {
		compose = prompt.Compose
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Controller{
		encoder:   opts.Encoder,
		generator: opts.Generator,
		compose:   compose,
		logger:    logger,
		state:     State{StyleID: domain.DefaultStyleID},
		subs:      make(map[int]chan State),
	}, nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// SelectFile stores file as the current upload and derives its preview
// reference. Any previous result, error and notice are cleared.
func (c *Controller) SelectFile(file domain.File) (State, error) {
	if file == nil {
		return c.Snapshot(), &domain.ValidationError{Message: msgNoFile}
	}
	if !domain.SupportedMediaType(file.MediaType()) {
		err := &domain.ValidationError{Message: "Unsupported image type. Please upload a PNG, JPEG, GIF or WEBP file."}
		return c.update(func(s *State) { s.Notice = err.Message }), err
	}

	img := &domain.UploadedImage{File: file, Preview: "blob:" + uuid.NewString()}
	snap := c.update(func(s *State) {
		s.Image = img
		s.Result = nil
		s.Error = ""
		s.Notice = ""
	})
	c.logger.Debug().
		Str("file", file.Name()).
		Str("mime_type", file.MediaType()).
		Int64("bytes", file.Size()).
		Msg("workflow: file selected")
	return snap, nil
}

// SelectStyle records the style id. An empty id resets to the default style;
// unknown ids are kept and resolved by the prompt builder.
func (c *Controller) SelectStyle(styleID string) State {
	if styleID == "" {
		styleID = domain.DefaultStyleID
	}
	return c.update(func(s *State) { s.StyleID = styleID })
}

// SetNote records the free-text note.
func (c *Controller) SetNote(note string) State {
	return c.update(func(s *State) { s.Note = note })
}

// Generate runs encode, compose and generate for the selected file. Without a
// file, or while another generation is running, it returns a
// *domain.ValidationError, records the notice, and touches nothing else.
// Pipeline failures are stored in the state and also returned.
func (c *Controller) Generate(ctx context.Context) (State, error) {
	j, snap, err := c.begin()
	if err != nil {
		return snap, err
	}
	return c.execute(ctx, j)
}

// Start applies the same guards as Generate synchronously, then runs the
// pipeline in the background. done receives the final state and is closed.
func (c *Controller) Start(ctx context.Context) (State, <-chan State, error) {
	j, snap, err := c.begin()
	if err != nil {
		return snap, nil, err
	}
	done := make(chan State, 1)
	go func() {
		defer close(done)
		final, _ := c.execute(ctx, j)
		done <- final
	}()
	return snap, done, nil
}

type job struct {
	file    domain.File
	styleID string
	note    string
}

func (c *Controller) begin() (job, State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var guard *domain.ValidationError
	switch {
	case c.state.Image == nil:
		guard = &domain.ValidationError{Message: msgNoFile}
	case c.state.Busy:
		guard = &domain.ValidationError{Message: msgBusy}
	}
	if guard != nil {
		c.state.Notice = guard.Message
		snap := c.state.clone()
		c.publishLocked(snap)
		return job{}, snap, guard
	}

	c.state.Busy = true
	c.state.Result = nil
	c.state.Error = ""
	c.state.Notice = ""
	snap := c.state.clone()
	c.publishLocked(snap)
	return job{file: c.state.Image.File, styleID: c.state.StyleID, note: c.state.Note}, snap, nil
}

func (c *Controller) execute(ctx context.Context, j job) (State, error) {
	start := time.Now()
	img, err := c.run(ctx, j.file, j.styleID, j.note)

	snap := c.update(func(s *State) {
		s.Busy = false
		s.Notice = ""
		if err != nil {
			s.Error = domain.Message(err)
			return
		}
		s.Result = &img
	})

	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("style", j.styleID).
			Dur("took", time.Since(start)).
			Msg("workflow: generation failed")
		return snap, err
	}
	c.logger.Info().
		Str("style", j.styleID).
		Int("bytes", len(img.Data)).
		Dur("took", time.Since(start)).
		Msg("workflow: generation succeeded")
	return snap, nil
}

func (c *Controller) run(ctx context.Context, file domain.File, styleID, note string) (domain.GeneratedImage, error) {
	payload, err := c.encoder.Encode(ctx, file)
	if err != nil {
		return domain.GeneratedImage{}, err
	}
	instruction := c.compose(styleID, note)
	return c.generator.Generate(ctx, payload, instruction)
}

// Subscribe delivers a snapshot after every state change. Slow subscribers
// only see the latest snapshot. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.state.clone()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close ends all subscriptions. The controller keeps answering Snapshot.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) update(fn func(*State)) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	snap := c.state.clone()
	c.publishLocked(snap)
	return snap
}

func (c *Controller) publishLocked(snap State) {
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
