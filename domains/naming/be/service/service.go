package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainrepo "github.com/benchline/lims-core/domains/naming/be/repo"
	"github.com/benchline/lims-core/platform/go/apperrors"
	"github.com/benchline/lims-core/platform/go/logging"
	"github.com/benchline/lims-core/platform/go/persistence"
)

// DefaultMaxRetries bounds the attempts made before falling back to a random identifier.
const DefaultMaxRetries = 10

// Domain-level error sentinel values.
var (
	ErrTemplateNotFound     = fmt.Errorf("%w: no active name template", apperrors.ErrNotFound)
	ErrTemplateConflict     = fmt.Errorf("%w: name template conflict", apperrors.ErrPrecondition)
	ErrInvalidTemplate      = fmt.Errorf("%w: invalid name template", apperrors.ErrPrecondition)
	ErrInvalidEntityType    = fmt.Errorf("%w: invalid entity type", apperrors.ErrPrecondition)
	ErrInvalidSequenceValue = fmt.Errorf("%w: sequence value must be at least 1", apperrors.ErrPrecondition)
	ErrDuplicatePlaceholder = fmt.Errorf("%w: extra placeholder given more than once", apperrors.ErrPrecondition)
	ErrGenerationExhausted  = fmt.Errorf("%w: no unique name within the retry budget", apperrors.ErrGenerationExhausted)
	ErrGenerationBackend    = fmt.Errorf("%w: name generation backend failure", apperrors.ErrBackend)
)

// GenerateInput carries the per-call context for a generated or previewed name.
type GenerateInput struct {
	EntityType persistence.EntityType
	ClientName string
	// ReferenceDate drives the date placeholders. Zero means now.
	ReferenceDate time.Time
	// MaxRetries zero or negative means the service default.
	MaxRetries int
	// Extra placeholders keyed without braces. Keys are upper-cased; built-in tokens cannot be
	// overridden and keys equal after upper-casing are rejected.
	Extra map[string]string
}

// CreateTemplateInput defines a new active template for an entity type.
type CreateTemplateInput struct {
	EntityType       persistence.EntityType
	Template         string
	SeqPaddingDigits int
}

// Service generates unique entity names from per-entity-type templates.
type Service interface {
	Generate(ctx context.Context, input GenerateInput) (string, error)
	Preview(ctx context.Context, input GenerateInput) (string, error)
	ResetSequence(ctx context.Context, entityType persistence.EntityType, next int64) error
	CreateTemplate(ctx context.Context, input CreateTemplateInput) (persistence.NameTemplate, error)
	DeactivateTemplate(ctx context.Context, id uuid.UUID) error
}

// Option customises the generator.
type Option func(*service)

// WithLogger attaches a logger. A nil logger is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxRetries overrides DefaultMaxRetries. Non-positive values are ignored.
func WithMaxRetries(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithClock overrides the time source used when no reference date is supplied.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFallbackID overrides the random identifier used when no templated name is available.
func WithFallbackID(newID func() string) Option {
	return func(s *service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

type service struct {
	repo       domainrepo.Repository
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
	newID      func() string
}

// New builds a name generation Service backed by the provided repository.
func New(repo domainrepo.Repository, opts ...Option) Service {
	if repo == nil {
		panic("naming repository is required")
	}
	s := &service{
		repo:       repo,
		logger:     zap.NewNop(),
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// sequenceSource yields the {SEQ} value for one attempt.
type sequenceSource func(ctx context.Context, entityType persistence.EntityType) (int64, error)

func (s *service) Generate(ctx context.Context, input GenerateInput) (string, error) {
	if !input.EntityType.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntityType, input.EntityType)
	}
	extra, err := normalizeExtras(input.Extra)
	if err != nil {
		return "", err
	}
	input.Extra = extra
	logger := logging.FromContextOr(ctx, s.logger).With(zap.String("entity_type", string(input.EntityType)))

	tmpl, err := s.repo.GetActiveTemplate(ctx, input.EntityType)
	if err != nil {
		if errors.Is(err, persistence.ErrTemplateNotFound) {
			name := s.newID()
			logger.Info("no active name template, using fallback identifier", zap.String("name", name))
			return name, nil
		}
		return "", fmt.Errorf("%w: load template: %w", ErrGenerationBackend, err)
	}

	if input.ReferenceDate.IsZero() {
		input.ReferenceDate = s.now()
	}
	retries := input.MaxRetries
	if retries <= 0 {
		retries = s.maxRetries
	}
	varies := strings.Contains(tmpl.Template, placeholder(TokenSequence))

	for attempt := 1; attempt <= retries; attempt++ {
		name, err := s.render(ctx, tmpl, input, s.repo.NextSequenceValue)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrGenerationBackend, err)
		}

		exists, err := s.repo.NameExists(ctx, input.EntityType, name)
		if err != nil {
			return "", fmt.Errorf("%w: check uniqueness: %w", ErrGenerationBackend, err)
		}
		if !exists {
			return name, nil
		}

		if !varies {
			logger.Debug("generated name collides and template has no sequence", zap.String("name", name))
			break
		}
		logger.Debug("generated name collides, retrying with next sequence value",
			zap.String("name", name),
			zap.Int("attempt", attempt),
		)
	}

	name := s.newID()
	logger.Warn("name generation exhausted, using fallback identifier",
		zap.Error(ErrGenerationExhausted),
		zap.String("template", tmpl.Template),
		zap.String("name", name),
	)
	return name, nil
}

// Preview renders the next name without advancing the sequence or checking uniqueness.
func (s *service) Preview(ctx context.Context, input GenerateInput) (string, error) {
	if !input.EntityType.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntityType, input.EntityType)
	}
	extra, err := normalizeExtras(input.Extra)
	if err != nil {
		return "", err
	}
	input.Extra = extra

	tmpl, err := s.repo.GetActiveTemplate(ctx, input.EntityType)
	if err != nil {
		if errors.Is(err, persistence.ErrTemplateNotFound) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, input.EntityType)
		}
		return "", fmt.Errorf("%w: load template: %w", ErrGenerationBackend, err)
	}

	logger := logging.FromContextOr(ctx, s.logger)
	peek := func(ctx context.Context, entityType persistence.EntityType) (int64, error) {
		next, err := s.repo.PeekSequenceValue(ctx, entityType)
		if err != nil {
			logger.Warn("sequence peek failed, previewing with 1",
				zap.String("entity_type", string(entityType)),
				zap.Error(err),
			)
			return 1, nil
		}
		return next, nil
	}

	return s.render(ctx, tmpl, input, peek)
}

func (s *service) ResetSequence(ctx context.Context, entityType persistence.EntityType, next int64) error {
	if !entityType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEntityType, entityType)
	}
	if next < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSequenceValue, next)
	}
	if err := s.repo.ResetSequence(ctx, entityType, next); err != nil {
		return fmt.Errorf("%w: reset sequence: %w", ErrGenerationBackend, err)
	}
	logging.FromContextOr(ctx, s.logger).Info("sequence reset",
		zap.String("entity_type", string(entityType)),
		zap.Int64("next", next),
	)
	return nil
}

func (s *service) CreateTemplate(ctx context.Context, input CreateTemplateInput) (persistence.NameTemplate, error) {
	if !input.EntityType.Valid() {
		return persistence.NameTemplate{}, fmt.Errorf("%w: %q", ErrInvalidEntityType, input.EntityType)
	}
	padding := input.SeqPaddingDigits
	if padding == 0 {
		padding = MinSeqPadding
	}
	template := strings.TrimSpace(input.Template)
	if err := ValidateTemplate(template, padding); err != nil {
		return persistence.NameTemplate{}, err
	}

	tmpl, err := s.repo.CreateTemplate(ctx, persistence.CreateTemplateParams{
		TemplateID:       uuid.New(),
		EntityType:       input.EntityType,
		Template:         template,
		SeqPaddingDigits: padding,
	})
	if err != nil {
		return persistence.NameTemplate{}, mapPersistenceError(err)
	}
	return tmpl, nil
}

func (s *service) DeactivateTemplate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeactivateTemplate(ctx, id); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

// render substitutes every placeholder present in the template. Values are computed only for
// tokens that appear, so a template without {SEQ} never touches the sequence.
func (s *service) render(ctx context.Context, tmpl persistence.NameTemplate, input GenerateInput, nextSeq sequenceSource) (string, error) {
	date := input.ReferenceDate
	if date.IsZero() {
		date = s.now()
	}

	replacements := make(map[string]string)
	for _, token := range Placeholders(tmpl.Template) {
		switch token {
		case TokenYear:
			replacements[token] = date.Format("2006")
		case TokenYearTwo:
			replacements[token] = date.Format("06")
		case TokenMonth:
			replacements[token] = date.Format("01")
		case TokenDay:
			replacements[token] = date.Format("02")
		case TokenDate:
			replacements[token] = date.Format("20060102")
		case TokenClient:
			replacements[token] = normalizeClient(input.ClientName)
		case TokenSequence:
			value, err := nextSeq(ctx, tmpl.EntityType)
			if err != nil {
				return "", fmt.Errorf("next sequence value: %w", err)
			}
			replacements[token] = padSequence(value, tmpl.SeqPaddingDigits)
		}
	}

	for token, value := range input.Extra {
		if strings.Contains(tmpl.Template, placeholder(token)) {
			replacements[token] = value
		}
	}

	return applyReplacements(tmpl.Template, replacements), nil
}

// normalizeExtras upper-cases caller placeholder keys and drops blank and built-in ones.
func normalizeExtras(extra map[string]string) (map[string]string, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	normalized := make(map[string]string, len(extra))
	for key, value := range extra {
		token := strings.ToUpper(strings.TrimSpace(key))
		if token == "" || IsBuiltinToken(token) {
			continue
		}
		if _, dup := normalized[token]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlaceholder, token)
		}
		normalized[token] = value
	}
	return normalized, nil
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrTemplateNotFound):
		return ErrTemplateNotFound
	case errors.Is(err, persistence.ErrTemplateConflict):
		return ErrTemplateConflict
	case errors.Is(err, persistence.ErrUnknownEntityType):
		return fmt.Errorf("%w: %w", ErrInvalidEntityType, err)
	default:
		return fmt.Errorf("%w: %w", ErrGenerationBackend, err)
	}
}
