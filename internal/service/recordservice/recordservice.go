// Package recordservice serves the loosely typed profile and catalogue
// tables. Each table is described by a Resource that says who may read,
// write and delete its rows.
package recordservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/fieldmap"
	"github.com/divinecia/Househelp-sub000/internal/service/notifyservice"
	"github.com/divinecia/Househelp-sub000/pkg/auth"
)

type Repo interface {
	List(ctx context.Context, table string, filter domain.Record, limit, offset int) ([]domain.Record, error)
	Get(ctx context.Context, table string, id uuid.UUID) (domain.Record, error)
	Insert(ctx context.Context, table string, rec domain.Record) (domain.Record, error)
	Update(ctx context.Context, table string, id uuid.UUID, rec domain.Record) (domain.Record, error)
	Delete(ctx context.Context, table string, id uuid.UUID) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string)
}

type Service struct {
	repo     Repo
	notifier Notifier
	now      func() time.Time
}

func New(repo Repo, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context, p *auth.Principal, name string, query map[string]string, page domain.Page) ([]domain.Record, error) {
	res, err := s.readable(p, name)
	if err != nil {
		return nil, err
	}

	filter, err := fieldmap.Filter(res.Entity, query, res.Filters)
	if err != nil {
		return nil, err
	}

	if res.Read == readOwner && !p.IsAdmin() {
		o, ok := res.ownerFor(p)
		if !ok {
			return nil, domain.ErrForbidden
		}
		filter[o.column] = o.id(p)
	}

	page = page.Normalize()
	records, err := s.repo.List(ctx, res.Name, filter, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", res.Name, err)
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, name string, id uuid.UUID) (domain.Record, error) {
	res, err := s.readable(p, name)
	if err != nil {
		return nil, err
	}
	row, err := s.get(ctx, res, id)
	if err != nil {
		return nil, err
	}
	if res.Read == readOwner && !p.IsAdmin() && !owns(res, p, row) {
		return nil, domain.ErrForbidden
	}
	return row, nil
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, name string, payload map[string]any) (domain.Record, error) {
	res, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if !res.canCreate(p) {
		return nil, domain.ErrForbidden
	}

	rec, err := writable(res, p, payload)
	if err != nil {
		return nil, err
	}
	if o, ok := res.ownerFor(p); ok && (!p.IsAdmin() || rec[o.column] == nil) {
		rec[o.column] = o.id(p)
	}
	if missing := missingColumns(rec, res.Required); len(missing) > 0 {
		return nil, domain.MissingFields(missing...)
	}

	created, err := s.repo.Insert(ctx, res.Name, rec)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", res.Name, err)
	}
	zap.L().Info("record created", zap.String("table", res.Name), zap.String("user_id", p.UserID.String()))
	return created, nil
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, name string, id uuid.UUID, payload map[string]any) (domain.Record, error) {
	res, err := lookup(name)
	if err != nil {
		return nil, err
	}
	row, err := s.get(ctx, res, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !owns(res, p, row) {
		return nil, domain.ErrForbidden
	}

	rec, err := writable(res, p, payload)
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, domain.NewValidationError("no fields to save")
	}
	updated, err := s.repo.Update(ctx, res.Name, id, rec)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", res.Name, err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, name string, id uuid.UUID) error {
	res, err := lookup(name)
	if err != nil {
		return err
	}
	if !p.IsAdmin() {
		if !res.OwnerDelete {
			return domain.ErrForbidden
		}
		row, err := s.get(ctx, res, id)
		if err != nil {
			return err
		}
		if !owns(res, p, row) {
			return domain.ErrForbidden
		}
	}

	deleted, err := s.repo.Delete(ctx, res.Name, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", res.Name, err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

// VerifyDocument marks a pending document verified and tells its owner.
func (s *Service) VerifyDocument(ctx context.Context, p *auth.Principal, id uuid.UUID) (domain.Record, error) {
	return s.reviewDocument(ctx, p, id, domain.DocumentVerified, domain.Record{
		"verified_by":      p.UserID,
		"verified_at":      s.now(),
		"rejection_reason": nil,
	})
}

func (s *Service) RejectDocument(ctx context.Context, p *auth.Principal, id uuid.UUID, reason string) (domain.Record, error) {
	if reason == "" {
		return nil, domain.MissingFields("reason")
	}
	return s.reviewDocument(ctx, p, id, domain.DocumentRejected, domain.Record{
		"verified_by":      p.UserID,
		"verified_at":      s.now(),
		"rejection_reason": reason,
	})
}

func (s *Service) reviewDocument(ctx context.Context, p *auth.Principal, id uuid.UUID, to domain.DocumentStatus, rec domain.Record) (domain.Record, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	res, _ := lookup(Documents)
	row, err := s.get(ctx, res, id)
	if err != nil {
		return nil, err
	}
	if row["status"] != string(domain.DocumentPending) {
		return nil, domain.ErrInvalidTransition
	}

	rec["status"] = string(to)
	updated, err := s.repo.Update(ctx, Documents, id, rec)
	if err != nil {
		return nil, fmt.Errorf("review document: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	docType, _ := row["document_type"].(string)
	title, message := "Document Verified", fmt.Sprintf("Your %s has been verified.", docType)
	if to == domain.DocumentRejected {
		title = "Document Rejected"
		message = fmt.Sprintf("Your %s was rejected: %v", docType, rec["rejection_reason"])
	}
	if ownerID, ok := toUUID(row["user_id"]); ok {
		s.notifier.Notify(ctx, ownerID, notifyservice.KindDocument, title, message)
	}
	return updated, nil
}

func (s *Service) readable(p *auth.Principal, name string) (*Resource, error) {
	res, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if res.Read == readAdmin && !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return res, nil
}

func (s *Service) get(ctx context.Context, res *Resource, id uuid.UUID) (domain.Record, error) {
	row, err := s.repo.Get(ctx, res.Name, id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", res.Name, err)
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}
	return row, nil
}

// writable maps the payload and keeps only the columns the caller may set.
func writable(res *Resource, p *auth.Principal, payload map[string]any) (domain.Record, error) {
	mapped, err := fieldmap.Map(res.Entity, payload)
	if err != nil {
		return nil, err
	}
	rec := fieldmap.Restrict(res.Entity, mapped)
	if p.IsAdmin() {
		for k, v := range fieldmap.Pick(mapped, res.ownerColumns()) {
			rec[k] = v
		}
	} else {
		for _, c := range res.AdminColumns {
			delete(rec, c)
		}
		for _, c := range res.ownerColumns() {
			delete(rec, c)
		}
	}
	if err := fieldmap.CheckIDs(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func owns(res *Resource, p *auth.Principal, row domain.Record) bool {
	o, ok := res.ownerFor(p)
	if !ok {
		return false
	}
	id, ok := toUUID(row[o.column])
	return ok && id == o.id(p) && id != uuid.Nil
}

func missingColumns(rec domain.Record, required []string) []string {
	var missing []string
	for _, c := range required {
		v, ok := rec[c]
		if !ok || v == nil || v == "" || v == uuid.Nil {
			missing = append(missing, c)
		}
	}
	return missing
}

func toUUID(v any) (uuid.UUID, bool) {
	switch t := v.(type) {
	case uuid.UUID:
		return t, true
	case [16]byte:
		return uuid.UUID(t), true
	case string:
		id, err := uuid.Parse(t)
		return id, err == nil
	}
	return uuid.Nil, false
}
