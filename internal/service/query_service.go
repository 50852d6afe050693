package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scoped-query-api/internal/dto"
	"github.com/noah-isme/scoped-query-api/internal/export"
	"github.com/noah-isme/scoped-query-api/internal/models"
	"github.com/noah-isme/scoped-query-api/internal/observability"
)

var (
	// ErrAdminNotFound indicates the requested admin profile does not exist.
	ErrAdminNotFound = errors.New("admin not found")
	// ErrEmptyScope indicates the admin's scope holds no records, so querying is disabled.
	ErrEmptyScope = errors.New("no students in scope")
	// ErrEmptyQuery indicates the question was blank after sanitising.
	ErrEmptyQuery = errors.New("query must not be empty")
)

// FallbackNotice is shown when the question could not be resolved and the default intent was used.
const FallbackNotice = "The question could not be fully understood, so no filters were applied. Try rephrasing it or use a suggested query."

// SuggestedQueries are the canned questions offered next to the query box.
// They go through the resolver like any other text.
var SuggestedQueries = []string{
	"Who is the topper student?",
	"Show students with pending homework",
	"Show students who scored above 80",
	"Show all students",
}

// RecordSource provides the canonical, read-only collections.
type RecordSource interface {
	Students() models.StudentTable
	Admins() []models.AdminProfile
}

// QueryService answers scoped natural-language questions for admins.
type QueryService interface {
	Admins(ctx context.Context) []dto.AdminSummary
	Scope(ctx context.Context, adminID string) (dto.ScopeResponse, error)
	CheckAccess(ctx context.Context, adminID string, grade *int, class *string) (dto.AccessResponse, error)
	Query(ctx context.Context, adminID, query string) (dto.QueryResponse, error)
	Export(ctx context.Context, adminID, query string, intent *models.QueryIntent, format string) (export.File, error)
}

type adminSession struct {
	admin       models.AdminProfile
	scoped      models.StudentTable
	description string
}

type queryService struct {
	sessions  map[string]adminSession
	admins    []models.AdminProfile
	resolver  IntentResolver
	engine    *QueryEngine
	events    QueryEventPublisher
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQueryService scopes the records for every admin once and keeps the
// views for the lifetime of the service. events may be nil.
func NewQueryService(source RecordSource, resolver IntentResolver, engine *QueryEngine, events QueryEventPublisher, logger zerolog.Logger) QueryService {
	students := source.Students()
	admins := source.Admins()
	sessions := make(map[string]adminSession, len(admins))
	serviceLogger := logger.With().Str("component", "query_service").Logger()

	for _, admin := range admins {
		scoped := FilterByScope(students, admin)
		sessions[admin.AdminID] = adminSession{
			admin:       admin,
			scoped:      scoped,
			description: ScopeDescription(admin),
		}
		if scoped.Len() == 0 {
			serviceLogger.Warn().Str("admin_id", admin.AdminID).Msg("admin scope holds no records")
		}
	}

	return &queryService{
		sessions:  sessions,
		admins:    admins,
		resolver:  resolver,
		engine:    engine,
		events:    events,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/scoped-query-api/internal/service/query"),
		logger:    serviceLogger,
		now:       time.Now,
	}
}

func (s *queryService) Admins(context.Context) []dto.AdminSummary {
	summaries := make([]dto.AdminSummary, 0, len(s.admins))
	for _, admin := range s.admins {
		summaries = append(summaries, dto.AdminSummary{
			AdminID: admin.AdminID,
			Name:    admin.Name,
			Scope:   s.sessions[admin.AdminID].description,
		})
	}
	return summaries
}

func (s *queryService) Scope(_ context.Context, adminID string) (dto.ScopeResponse, error) {
	session, err := s.session(adminID)
	if err != nil {
		return dto.ScopeResponse{}, err
	}
	return dto.ScopeResponse{
		Admin:       session.admin,
		Description: session.description,
		Columns:     session.scoped.Columns,
		Stats:       ScopeStats(session.scoped),
		Empty:       session.scoped.Len() == 0,
	}, nil
}

func (s *queryService) CheckAccess(_ context.Context, adminID string, grade *int, class *string) (dto.AccessResponse, error) {
	session, err := s.session(adminID)
	if err != nil {
		return dto.AccessResponse{}, err
	}
	allowed, reason := ValidateAccess(session.admin, grade, class)
	return dto.AccessResponse{Allowed: allowed, Reason: reason}, nil
}

func (s *queryService) Query(parent context.Context, adminID, query string) (dto.QueryResponse, error) {
	ctx, span := s.tracer.Start(parent, "query.execute", trace.WithAttributes(
		attribute.String("admin_id", adminID),
	))
	defer span.End()

	session, text, err := s.prepare(adminID, query)
	if err != nil {
		return dto.QueryResponse{}, err
	}

	result, notice, err := s.run(ctx, session, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.QueryResponse{}, err
	}
	span.SetAttributes(
		attribute.String("intent", result.Intent),
		attribute.Int("count", result.Count),
	)

	return dto.QueryResponse{
		AdminID:    session.admin.AdminID,
		Query:      text,
		Scope:      session.description,
		Result:     result,
		Summary:    Summarize(result),
		Statistics: DescribeResult(result),
		Notice:     notice,
	}, nil
}

// Export renders the rows behind a query. A non-nil intent is applied as is, so
// the file matches the answer already shown; otherwise query is resolved first.
func (s *queryService) Export(ctx context.Context, adminID, query string, intent *models.QueryIntent, format string) (export.File, error) {
	session, applied, err := s.exportIntent(ctx, adminID, query, intent)
	if err != nil {
		return export.File{}, err
	}

	table := s.engine.ApplyFilters(session.scoped, applied)
	dataset := export.StudentDataset(table.Columns, table.Rows)
	title := fmt.Sprintf("Query results - %s", session.description)
	return export.Render(format, fmt.Sprintf("query_results_%s", session.admin.AdminID), title, dataset)
}

func (s *queryService) exportIntent(ctx context.Context, adminID, query string, intent *models.QueryIntent) (adminSession, models.QueryIntent, error) {
	if intent != nil {
		session, err := s.scopedSession(adminID)
		return session, *intent, err
	}

	session, text, err := s.prepare(adminID, query)
	if err != nil {
		return adminSession{}, models.QueryIntent{}, err
	}
	result, _, err := s.run(ctx, session, text)
	if err != nil {
		return adminSession{}, models.QueryIntent{}, err
	}
	return session, result.ParsedQuery, nil
}

func (s *queryService) session(adminID string) (adminSession, error) {
	session, ok := s.sessions[strings.TrimSpace(adminID)]
	if !ok {
		return adminSession{}, ErrAdminNotFound
	}
	return session, nil
}

func (s *queryService) scopedSession(adminID string) (adminSession, error) {
	session, err := s.session(adminID)
	if err != nil {
		return adminSession{}, err
	}
	if session.scoped.Len() == 0 {
		observability.EmptyScopeRejections().Inc()
		return adminSession{}, ErrEmptyScope
	}
	return session, nil
}

func (s *queryService) prepare(adminID, query string) (adminSession, string, error) {
	session, err := s.scopedSession(adminID)
	if err != nil {
		return adminSession{}, "", err
	}

	text := strings.Join(strings.Fields(html.UnescapeString(s.sanitizer.Sanitize(query))), " ")
	if text == "" {
		return adminSession{}, "", ErrEmptyQuery
	}
	return session, text, nil
}

func (s *queryService) run(ctx context.Context, session adminSession, text string) (models.ResultSet, string, error) {
	notice := ""
	intent, err := s.resolver.Resolve(ctx, text, session.scoped.Columns)
	if err != nil {
		var resolutionErr *IntentResolutionError
		if errors.As(err, &resolutionErr) {
			s.logger.Info().Err(err).Str("admin_id", session.admin.AdminID).Msg("falling back to default intent")
		} else {
			s.logger.Warn().Err(err).Str("admin_id", session.admin.AdminID).Msg("resolver failed, falling back to default intent")
		}
		observability.ResolverFallbacks().Inc()
		intent = models.DefaultQueryIntent()
		notice = FallbackNotice
	}

	result, err := s.engine.Execute(session.scoped, intent)
	if err != nil {
		return models.ResultSet{}, "", fmt.Errorf("execute query: %w", err)
	}

	observability.Queries().WithLabelValues(result.Intent).Inc()
	if len(result.Warnings) > 0 {
		observability.FilterWarnings().Add(float64(len(result.Warnings)))
	}

	s.logger.Info().
		Str("admin_id", session.admin.AdminID).
		Str("intent", result.Intent).
		Int("count", result.Count).
		Int("warnings", len(result.Warnings)).
		Msg("query answered")

	s.publish(ctx, QueryEvent{
		AdminID:    session.admin.AdminID,
		Query:      text,
		Intent:     result.Intent,
		Count:      result.Count,
		Degraded:   notice != "",
		Warnings:   len(result.Warnings),
		OccurredAt: s.now().UTC(),
	})

	return result, notice, nil
}

func (s *queryService) publish(ctx context.Context, event QueryEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("admin_id", event.AdminID).Msg("failed to publish query event")
	}
}
