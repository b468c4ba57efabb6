package authrules

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/storeops/console/internal/shared"
)

// RepositoryPort defines data access methods for rules.
type RepositoryPort interface {
	ListRules(ctx context.Context, filters ListFilters) ([]Rule, int, error)
	GetRule(ctx context.Context, id int64) (Rule, error)
	CreateRule(ctx context.Context, rule Rule) (Rule, error)
	SetActive(ctx context.Context, id int64, active bool) (Rule, error)
}

// AuditRecorder persists audit entries for rule mutations.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles rule administration.
type Service struct {
	repo   RepositoryPort
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns rules with paging metadata.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Rule, shared.Pagination, error) {
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	rules, total, err := s.repo.ListRules(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return rules, shared.NewPagination(filters.Page, filters.PageSize, total), nil
}

// Create validates and persists a new rule.
func (s *Service) Create(ctx context.Context, actorID int64, rule Rule) (Rule, error) {
	rule.Service = strings.TrimSpace(rule.Service)
	rule.Method = strings.ToUpper(strings.TrimSpace(rule.Method))
	rule.PathPattern = strings.TrimSpace(rule.PathPattern)
	rule.RouteName = strings.TrimSpace(rule.RouteName)

	fields := shared.FieldErrors{}
	if rule.Service == "" {
		fields["service"] = "service is required"
	}
	if rule.Method == "" {
		fields["method"] = "method is required"
	}
	if (rule.PathPattern == "") == (rule.RouteName == "") {
		fields["pathPattern"] = "exactly one of pathPattern or routeName must be set"
	}
	if len(fields) > 0 {
		return Rule{}, shared.NewValidationError(fields)
	}

	created, err := s.repo.CreateRule(ctx, rule)
	if err != nil {
		return Rule{}, fmt.Errorf("authrules: create: %w", err)
	}
	s.recordAudit(ctx, actorID, shared.AuditActionCreate, created)
	return created, nil
}

// Toggle flips a rule's active flag. It is a pure state flip with no effect
// on other rules or on evaluation order.
func (s *Service) Toggle(ctx context.Context, actorID, id int64, active bool) (Rule, error) {
	rule, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return Rule{}, err
	}
	s.recordAudit(ctx, actorID, shared.AuditActionToggle, rule)
	return rule, nil
}

// PreviewInput describes a request plus principal for the rule tester.
type PreviewInput struct {
	Service     string
	Method      string
	Path        string
	Roles       []string
	Permissions []string
}

// PreviewResult reports the matched rule and authorization outcome.
type PreviewResult struct {
	Matched    *Rule `json:"matched"`
	Authorized bool  `json:"authorized"`
}

// Preview runs the evaluator against the current rule set; administrators use
// it to confirm what the server-side enforcer would decide for a request.
func (s *Service) Preview(ctx context.Context, input PreviewInput) (PreviewResult, error) {
	rules, _, err := s.repo.ListRules(ctx, ListFilters{Service: input.Service, PageSize: 1000, Page: 1})
	if err != nil {
		return PreviewResult{}, err
	}
	matched := Match(rules, input.Service, input.Method, input.Path)
	if matched == nil {
		return PreviewResult{}, nil
	}
	principal := NewPrincipal(input.Roles, input.Permissions)
	return PreviewResult{Matched: matched, Authorized: Authorize(*matched, principal)}, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, rule Rule) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "auth_rule",
		EntityID: strconv.FormatInt(rule.ID, 10),
		Meta: map[string]any{
			"service":   rule.Service,
			"method":    rule.Method,
			"is_active": rule.IsActive,
		},
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit rule mutation", slog.Any("error", err))
	}
}
