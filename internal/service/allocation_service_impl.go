package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/viabilidade/backend/internal/allocation"
	"github.com/viabilidade/backend/internal/catalog"
	"github.com/viabilidade/backend/internal/feasibility"
	"github.com/viabilidade/backend/internal/model"
	"github.com/viabilidade/backend/internal/repository"
	"github.com/viabilidade/backend/internal/session"
)

// AllocationServiceImpl は AllocationService の実装
type AllocationServiceImpl struct {
	store    session.Store
	projects repository.ProjectRepository
	history  HistoryService
	catalog  *catalog.Catalog
}

// NewAllocationService は AllocationServiceImpl を生成する
func NewAllocationService(store session.Store, projects repository.ProjectRepository, history HistoryService, cat *catalog.Catalog) AllocationService {
	return &AllocationServiceImpl{store: store, projects: projects, history: history, catalog: cat}
}

func (s *AllocationServiceImpl) Open(ctx context.Context, projectID string) (*SessionView, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, p)
}

func (s *AllocationServiceImpl) OpenNew(ctx context.Context, name string) (*SessionView, error) {
	if name == "" {
		return nil, invalid("nome", "must not be empty")
	}
	return s.open(ctx, s.catalog.NewProject(name))
}

func (s *AllocationServiceImpl) open(ctx context.Context, p *model.Project) (*SessionView, error) {
	s.catalog.Normalize(p)
	st := &session.State{
		ProjectID: p.ID,
		Project:   p,
		Previous:  make(map[model.Kind]allocation.Set, len(model.Kinds)),
	}
	for _, kind := range model.Kinds {
		st.Previous[kind] = p.Allocation(kind).Clone()
	}
	if err := s.store.Create(ctx, st); err != nil {
		return nil, err
	}
	slog.Info("edit session opened", "session_id", st.ID, "project_id", p.ID)
	return viewOf(st), nil
}

func (s *AllocationServiceImpl) Get(ctx context.Context, sessionID string) (*SessionView, error) {
	st, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, sessionErr(err)
	}
	return viewOf(st), nil
}

func (s *AllocationServiceImpl) EditItem(ctx context.Context, sessionID string, kind model.Kind, item string, percentual float64) (*EditResult, error) {
	return s.edit(ctx, sessionID, kind, item, percentual, allocation.FonteManual)
}

func (s *AllocationServiceImpl) ApplyReference(ctx context.Context, sessionID string, kind model.Kind, item, historyID string) (*EditResult, error) {
	entry, err := s.history.GetByID(ctx, historyID)
	if err != nil {
		return nil, err
	}
	if entry.Kind != kind {
		return nil, invalid("history_id", "reference is a %s allocation", entry.Kind)
	}
	v, ok := entry.Percentages[item]
	if !ok {
		return nil, fmt.Errorf("%w: %q not in reference %q", ErrUnknownItem, item, entry.ProjectName)
	}
	return s.edit(ctx, sessionID, kind, item, v, entry.ProjectName)
}

// edit は 1 項目を変更して再配分する。失敗した場合スナップショットは変わらない
func (s *AllocationServiceImpl) edit(ctx context.Context, sessionID string, kind model.Kind, item string, requested float64, fonte string) (*EditResult, error) {
	bounds, err := s.catalog.Bounds(kind)
	if err != nil {
		return nil, err
	}
	b, ok := bounds[item]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItem, item)
	}

	res := &EditResult{Kind: kind}
	applied := b.Clamp(requested)
	if applied != requested {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%s: %g%% is outside [%g%%, %g%%]; using %g%%", item, requested, b.Min, b.Max, applied))
		slog.Warn("requested percentage clamped", "session_id", sessionID, "kind", kind, "item", item,
			"requested", requested, "applied", applied)
	}

	st, err := s.store.Update(ctx, sessionID, func(st *session.State) error {
		current := st.Project.Allocation(kind).Clone()
		current[item] = allocation.Item{Percentual: applied, Fonte: fonte}

		out, err := allocation.RebalanceDetailed(current, st.Previous[kind], bounds)
		if err != nil {
			return err
		}
		st.Project.SetAllocation(kind, out.Set)
		st.Previous[kind] = out.Set.Clone()

		res.Edited, res.Changed, res.Delta, res.Clamps = out.Edited, out.Changed, out.Delta, out.Clamps
		return nil
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	for _, c := range res.Clamps {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%s: redistribution asked for %g%%, held at %g%%", c.Item, c.Requested, c.Applied))
	}
	res.Session = viewOf(st)
	return res, nil
}

func (s *AllocationServiceImpl) ResetDefaults(ctx context.Context, sessionID string, kind model.Kind) (*SessionView, error) {
	bounds, err := s.catalog.Bounds(kind)
	if err != nil {
		return nil, err
	}
	defaults := allocation.Defaults(bounds)
	st, err := s.store.Update(ctx, sessionID, func(st *session.State) error {
		st.Project.SetAllocation(kind, defaults.Clone())
		st.Previous[kind] = defaults.Clone()
		return nil
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	return viewOf(st), nil
}

func (s *AllocationServiceImpl) UpdateDraft(ctx context.Context, sessionID string, patch DraftPatch) (*SessionView, error) {
	st, err := s.store.Update(ctx, sessionID, func(st *session.State) error {
		patch.apply(st.Project)
		return validateProject(s.catalog, st.Project)
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	return viewOf(st), nil
}

func (s *AllocationServiceImpl) ApplyCUB(ctx context.Context, sessionID, state, standard string) (*SessionView, error) {
	v, ok := s.catalog.CUBValue(state, standard)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownCUB, state, standard)
	}
	st, err := s.store.Update(ctx, sessionID, func(st *session.State) error {
		st.Project.Costs.ConstructionCostPerM2 = v
		return nil
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	return viewOf(st), nil
}

// Save はドラフトをプロジェクトとして保存する。
// リポジトリへの書き込みはセッション更新の外で一度だけ行う（Update の fn は再実行されうる）
func (s *AllocationServiceImpl) Save(ctx context.Context, sessionID string) (*model.Project, error) {
	st, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, sessionErr(err)
	}
	p := st.Project
	if err := validateProject(s.catalog, p); err != nil {
		return nil, err
	}
	if st.ProjectID == "" {
		if err := s.projects.Create(ctx, p); err != nil {
			return nil, err
		}
	} else {
		p.ID = st.ProjectID
		if err := s.projects.Update(ctx, p); err != nil {
			return nil, err
		}
	}

	_, err = s.store.Update(ctx, sessionID, func(cur *session.State) error {
		if cur.ProjectID == "" {
			cur.ProjectID = p.ID
		}
		if cur.Project != nil {
			cur.Project.ID = cur.ProjectID
		}
		return nil
	})
	if err != nil {
		return nil, sessionErr(err)
	}
	slog.Info("project saved from session", "session_id", sessionID, "project_id", p.ID)
	return p, nil
}

func (s *AllocationServiceImpl) Archive(ctx context.Context, sessionID string, kind model.Kind) (*model.HistoryEntry, error) {
	st, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, sessionErr(err)
	}
	return s.history.Archive(ctx, st.Project, kind)
}

func (s *AllocationServiceImpl) Results(ctx context.Context, sessionID string) (*feasibility.Metrics, error) {
	st, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, sessionErr(err)
	}
	m := feasibility.Compute(st.Project)
	return &m, nil
}

func (s *AllocationServiceImpl) Discard(ctx context.Context, sessionID string) error {
	return sessionErr(s.store.Delete(ctx, sessionID))
}

func viewOf(st *session.State) *SessionView {
	return &SessionView{
		ID:        st.ID,
		ProjectID: st.ProjectID,
		Project:   st.Project,
		Totals:    totalsOf(st.Project),
		UpdatedAt: st.UpdatedAt,
	}
}

func sessionErr(err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}
