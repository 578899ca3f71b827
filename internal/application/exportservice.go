package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
	"github.com/ericfisherdev/credvault/internal/metrics"
	"github.com/ericfisherdev/credvault/internal/secret"
)

var (
	// ErrEmptyResult indicates an export matched no credentials. Nothing is
	// written and nothing is audited.
	ErrEmptyResult = errors.New("no credentials match the export filters")

	// ErrRender indicates the workbook could not be built.
	ErrRender = errors.New("export rendering failed")

	// ErrPersistence indicates the rendered workbook could not be staged.
	ErrPersistence = errors.New("export staging failed")
)

// MinExportPasswordLength is the shortest accepted one-time export password.
const MinExportPasswordLength = 8

const filenameTimeLayout = "20060102_150405"

// exportPasswordOptions keeps export passwords easy to read out and type.
var exportPasswordOptions = secret.PasswordOptions{Lowercase: true, Uppercase: true, Numbers: true}

// PasswordGenerator produces random passwords.
type PasswordGenerator interface {
	GenerateRandomPassword(length int, opts secret.PasswordOptions) (string, error)
}

// ExportObserver receives the outcome of every export attempt.
type ExportObserver interface {
	ObserveExport(mode, outcome string, records int)
}

type noopObserver struct{}

func (noopObserver) ObserveExport(string, string, int) {}

// ExportRequest is one export of already revealed credentials.
type ExportRequest struct {
	Records []model.Credential
	Origin  model.Origin
	Filters model.CredentialFilter
	Mode    model.ExportMode
}

// ExportService renders credentials into a password-protected workbook,
// stages it for download and records its provenance.
type ExportService struct {
	records        driven.CredentialStore
	renderer       driven.WorkbookRenderer
	artifacts      driven.ArtifactStore
	purger         driven.PurgeScheduler
	passwords      PasswordGenerator
	auditor        *Auditor
	observer       ExportObserver
	logger         *slog.Logger
	passwordLength int
	now            func() time.Time
	suffix         func() string
}

// NewExportService creates a new ExportService. observer may be nil.
func NewExportService(
	records driven.CredentialStore,
	renderer driven.WorkbookRenderer,
	artifacts driven.ArtifactStore,
	purger driven.PurgeScheduler,
	passwords PasswordGenerator,
	auditor *Auditor,
	observer ExportObserver,
	logger *slog.Logger,
	passwordLength int,
) *ExportService {
	if observer == nil {
		observer = noopObserver{}
	}
	return &ExportService{
		records:        records,
		renderer:       renderer,
		artifacts:      artifacts,
		purger:         purger,
		passwords:      passwords,
		auditor:        auditor,
		observer:       observer,
		logger:         logger,
		passwordLength: max(passwordLength, MinExportPasswordLength),
		now:            time.Now,
		suffix:         randomSuffix,
	}
}

func randomSuffix() string {
	return uuid.NewString()[:8]
}

// ExportCredentials loads the credentials matching filter and exports them.
func (s *ExportService) ExportCredentials(ctx context.Context, origin model.Origin, filter model.CredentialFilter, mode model.ExportMode) (*model.ExportArtifact, error) {
	records, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load credentials for export: %w", err)
	}

	return s.Export(ctx, ExportRequest{
		Records: records,
		Origin:  origin,
		Filters: filter,
		Mode:    mode,
	})
}

// Export renders req.Records, protects every sheet with a fresh one-time
// password and stages the file. The returned artifact carries the password;
// it is never logged or stored.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*model.ExportArtifact, error) {
	mode := req.Mode
	if mode == "" {
		mode = model.ExportModeSingle
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown export mode %q", model.ErrValidation, mode)
	}

	if len(req.Records) == 0 {
		s.observer.ObserveExport(string(mode), metrics.OutcomeEmpty, 0)
		return nil, ErrEmptyResult
	}

	artifact, err := s.export(ctx, req, mode)
	if err != nil {
		s.observer.ObserveExport(string(mode), metrics.OutcomeFailure, 0)
		s.logger.Error("export failed", "mode", mode, "actor_id", req.Origin.Actor.ID, "error", err)
		return nil, err
	}

	s.observer.ObserveExport(string(mode), metrics.OutcomeSuccess, artifact.RecordCount)
	s.logger.Info("export staged",
		"file", artifact.FileName,
		"mode", mode,
		"records", artifact.RecordCount,
		"sheets", len(artifact.Sheets),
		"actor_id", req.Origin.Actor.ID,
	)
	return artifact, nil
}

func (s *ExportService) export(ctx context.Context, req ExportRequest, mode model.ExportMode) (*model.ExportArtifact, error) {
	sorted := sortForExport(req.Records)

	var (
		wb         model.Workbook
		groupCount int
	)
	switch mode {
	case model.ExportModeGrouped:
		groups := groupByClient(sorted)
		wb = buildGroupedWorkbook(groups)
		groupCount = len(groups)
	default:
		wb = buildSingleWorkbook(sorted)
	}

	password, err := s.passwords.GenerateRandomPassword(s.passwordLength, exportPasswordOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: generate password: %w", ErrRender, err)
	}

	rendered, err := s.renderer.Render(wb, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	createdAt := s.now().UTC()
	filename := fmt.Sprintf("%s_export_%s_%s.xlsx", mode, createdAt.Format(filenameTimeLayout), s.suffix())

	path, err := s.artifacts.Stage(ctx, filename, rendered.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	filters, err := json.Marshal(req.Filters)
	if err != nil {
		filters = []byte("{}")
	}

	audit := s.auditor.AppendAuditEntry(ctx, model.AuditEntry{
		ActorID:     req.Origin.Actor.ID,
		Action:      model.ActionExport,
		EntityType:  model.EntityCredential,
		Description: fmt.Sprintf("Exported %d credentials (%s) to %s", len(sorted), mode, filename),
		IPAddress:   req.Origin.IPAddress,
		UserAgent:   req.Origin.UserAgent,
		CreatedAt:   createdAt,
	})
	s.auditor.AppendExportLog(ctx, model.ExportLog{
		ActorID:     req.Origin.Actor.ID,
		ExportType:  mode,
		FileName:    filename,
		RecordCount: len(sorted),
		Filters:     string(filters),
		IPAddress:   req.Origin.IPAddress,
		CreatedAt:   createdAt,
	})

	return &model.ExportArtifact{
		FileName:    filename,
		Path:        path,
		Password:    password,
		Mode:        mode,
		Sheets:      rendered.Sheets,
		RecordCount: len(sorted),
		GroupCount:  groupCount,
		Audit:       audit,
		CreatedAt:   createdAt,
	}, nil
}

// OpenArtifact returns a staged export for download by the actor who created
// it. Any other actor, or a file without an export log row, gets
// ErrArtifactNotFound.
func (s *ExportService) OpenArtifact(ctx context.Context, actor model.Actor, filename string) (io.ReadSeekCloser, int64, error) {
	log, err := s.auditor.ExportLog(ctx, filename)
	if errors.Is(err, driven.ErrExportLogNotFound) {
		return nil, 0, fmt.Errorf("%s: %w", filename, driven.ErrArtifactNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("look up export %s: %w", filename, err)
	}
	if log.ActorID != actor.ID {
		s.logger.Warn("export download refused",
			"file", filename,
			"owner_id", log.ActorID,
			"actor_id", actor.ID,
		)
		return nil, 0, fmt.Errorf("%s: %w", filename, driven.ErrArtifactNotFound)
	}

	return s.artifacts.Open(filename)
}

// ArtifactDelivered schedules the delayed purge of a delivered export.
func (s *ExportService) ArtifactDelivered(filename string) {
	s.purger.SchedulePurge(filename)
}

// History returns one page of export logs, newest first, and the total count.
func (s *ExportService) History(ctx context.Context, limit, offset int) ([]model.ExportLog, int, error) {
	return s.auditor.ListExportLogs(ctx, limit, offset)
}
